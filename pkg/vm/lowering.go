package vm

import (
	"fmt"
	"sort"

	"jackc.dev/n2t/pkg/asm"
	"jackc.dev/n2t/pkg/labels"
)

// ----------------------------------------------------------------------------
// Vm Lowerer (aka the "VM Translator")

// TranslatorOptions configures the bootstrap sequence prepended to a translated program.
//
// Raw VM test scripts (the ones shipped alongside the original nand2tetris projects, such as
// 'SimpleAdd.vm' or 'StackTest.vm') are meant to be loaded with the Stack Pointer already primed
// by the test harness and run starting at the very first translated instruction: for those
// 'Bootstrap' stays false. Anything that relies on 'call'/'function'/'return' across multiple
// modules (i.e. any real compiled Jack program) needs 'Bootstrap' set so the Stack Pointer gets
// initialized and 'Init' gets invoked through the very same calling convention as any other call.
type TranslatorOptions struct {
	Bootstrap bool   // Emits the SP initialization followed by a call to 'Init'
	Init      string // Fully qualified name of the function to call after bootstrapping, default "Sys.init"
}

// The Lowerer takes a 'vm.Program' (one or more named modules) and produces its 'asm.Program'
// counterpart: plain Hack assembly statements, ready for the 'asm' package's own Lowerer/CodeGenerator.
//
// Modules are processed in name-sorted order so that the generated label numbering (and thus the
// compiled output) is deterministic across runs, independently of map iteration order or of the
// order in which the caller happened to read files off disk.
type Lowerer struct {
	program Program
	opts    TranslatorOptions

	labels labels.Generator // Return-address/loop label numbering, reset once for the whole program
	module string           // Name of the module currently being translated (namespaces 'static' vars)
	fn     string           // Fully qualified name of the function currently being translated
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires the argument Program 'p' to be not nil nor empty.
func NewLowerer(p Program, opts TranslatorOptions) Lowerer {
	return Lowerer{program: p, opts: opts}
}

// Triggers the lowering process. Modules are visited in name-sorted order and, within each
// module, operations are expanded in sequence into their Hack assembly counterpart.
func (l *Lowerer) Lowerer() (asm.Program, error) {
	if l.program == nil || len(l.program) == 0 {
		return nil, fmt.Errorf("the given 'program' is empty")
	}

	names := make([]string, 0, len(l.program))
	for name := range l.program {
		names = append(names, name)
	}
	sort.Strings(names)

	l.labels.Reset()
	program := asm.Program{}

	if l.opts.Bootstrap {
		init := l.opts.Init
		if init == "" {
			init = "Sys.init"
		}

		l.fn = ""
		program = append(program,
			asm.AInstruction{Location: "256"},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
		program = append(program, l.expandCall(FuncCallOp{Name: init, NArgs: 0})...)
	}

	for _, name := range names {
		l.module, l.fn = name, ""
		for _, operation := range l.program[name] {
			instructions, err := l.expandOperation(operation)
			if err != nil {
				return nil, fmt.Errorf("module '%s': %s", name, err)
			}
			program = append(program, instructions...)
		}
	}

	// Traps control flow here should it ever fall off the end of the translated program
	// (e.g. 'Init' returning) instead of spilling into the shared runtime helpers below.
	program = append(program,
		asm.LabelDecl{Name: "END"},
		asm.AInstruction{Location: "END"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)

	program = append(program, l.emitComparisonHelper("EQ", "R14", "JEQ")...)
	program = append(program, l.emitComparisonHelper("LT", "R15", "JLT")...)
	program = append(program, l.emitComparisonHelper("GT", "R15", "JGT")...)
	program = append(program, l.emitCallHelper()...)
	program = append(program, l.emitReturnHelper()...)

	return program, nil
}

// Dispatches a single VM operation to its specialized expansion function.
func (l *Lowerer) expandOperation(operation Operation) ([]asm.Instruction, error) {
	switch op := operation.(type) {
	case MemoryOp:
		return l.expandMemoryOp(op)
	case ArithmeticOp:
		return l.expandArithmeticOp(op)
	case LabelDecl:
		return []asm.Instruction{asm.LabelDecl{Name: l.namespaced(op.Name)}}, nil
	case GotoOp:
		return l.expandGotoOp(op)
	case FuncDecl:
		return l.expandFuncDecl(op)
	case FuncCallOp:
		return l.expandCall(op), nil
	case ReturnOp:
		return []asm.Instruction{asm.AInstruction{Location: "RETURN"}, asm.CInstruction{Comp: "0", Jump: "JMP"}}, nil
	default:
		return nil, fmt.Errorf("unrecognized operation '%T'", operation)
	}
}

// namespaced qualifies a jump-target name with the enclosing function, so that two functions
// are free to reuse the same label spelling (e.g. both loop with a label called "WHILE_START0").
func (l *Lowerer) namespaced(name string) string {
	if l.fn == "" {
		return name
	}
	return fmt.Sprintf("%s$%s", l.fn, name)
}

// ----------------------------------------------------------------------------
// Stack helpers shared by every expansion below

// pushD emits the instructions that push the current value of the D register on top of the stack.
func pushD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// popToD emits the instructions that pop the stack's top into the D register.
func popToD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
	}
}

// ----------------------------------------------------------------------------
// Memory Op expansion

func (l *Lowerer) expandMemoryOp(op MemoryOp) ([]asm.Instruction, error) {
	switch op.Segment {
	case Constant:
		if op.Operation == Pop {
			return nil, fmt.Errorf("'constant' segment cannot be the target of a 'pop'")
		}
		return l.pushConstant(op.Offset), nil

	case Argument:
		return l.memorySegment(op, "ARG")
	case Local:
		return l.memorySegment(op, "LCL")
	case This:
		return l.memorySegment(op, "THIS")
	case That:
		return l.memorySegment(op, "THAT")

	case Pointer:
		if op.Offset > 1 {
			return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
		}
		reg := "THIS"
		if op.Offset == 1 {
			reg = "THAT"
		}
		return l.directLocation(op, reg), nil

	case Temp:
		if op.Offset > 7 {
			return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
		}
		return l.directLocation(op, fmt.Sprintf("R%d", 5+op.Offset)), nil

	case Static:
		return l.directLocation(op, fmt.Sprintf("%s.%d", l.module, op.Offset)), nil

	default:
		return nil, fmt.Errorf("unrecognized segment '%s'", op.Segment)
	}
}

// pushConstant pushes a numeric literal on top of the stack. Values whose top bit would be
// mistaken for the Hack A-instruction's opcode bit are loaded through their bitwise complement.
func (l *Lowerer) pushConstant(value uint16) []asm.Instruction {
	switch value {
	case 0:
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "0"},
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "M+1"},
		}
	case 1:
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "1"},
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "M+1"},
		}
	}

	instructions := make([]asm.Instruction, 0, 2)
	if value < 1<<15 {
		instructions = append(instructions,
			asm.AInstruction{Location: fmt.Sprint(value)}, asm.CInstruction{Dest: "D", Comp: "A"})
	} else {
		instructions = append(instructions,
			asm.AInstruction{Location: fmt.Sprint(^value)}, asm.CInstruction{Dest: "D", Comp: "!A"})
	}
	return append(instructions, pushD()...)
}

// directLocation pushes/pops a segment backed directly by a named register (Pointer, Temp, Static),
// i.e. one that needs no base-pointer indirection.
func (l *Lowerer) directLocation(op MemoryOp, location string) []asm.Instruction {
	if op.Operation == Push {
		instructions := []asm.Instruction{asm.AInstruction{Location: location}, asm.CInstruction{Dest: "D", Comp: "M"}}
		return append(instructions, pushD()...)
	}

	instructions := popToD()
	return append(instructions, asm.AInstruction{Location: location}, asm.CInstruction{Dest: "M", Comp: "D"})
}

// memorySegment pushes/pops a segment that is addressed relative to a base pointer (Argument, Local,
// This, That): the effective address is 'base + offset', computed into R13 before use.
func (l *Lowerer) memorySegment(op MemoryOp, base string) ([]asm.Instruction, error) {
	address := []asm.Instruction{asm.AInstruction{Location: base}, asm.CInstruction{Dest: "D", Comp: "M"}}
	if op.Offset > 0 {
		address = append(address,
			asm.AInstruction{Location: fmt.Sprint(op.Offset)}, asm.CInstruction{Dest: "D", Comp: "D+A"})
	}

	if op.Operation == Push {
		instructions := append(address, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"})
		instructions = append(instructions, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "D", Comp: "M"})
		return append(instructions, pushD()...), nil
	}

	instructions := append(address, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"})
	instructions = append(instructions, popToD()...)
	return append(instructions, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"}), nil
}

// ----------------------------------------------------------------------------
// Arithmetic Op expansion

func (l *Lowerer) expandArithmeticOp(op ArithmeticOp) ([]asm.Instruction, error) {
	switch op.Operation {
	case Add:
		return binaryInPlace("M+D"), nil
	case Sub:
		return binaryInPlace("M-D"), nil
	case And:
		return binaryInPlace("M&D"), nil
	case Or:
		return binaryInPlace("M|D"), nil
	case Neg:
		return unaryInPlace("-M"), nil
	case Not:
		return unaryInPlace("!M"), nil
	case Eq:
		return l.expandCompare("EQ", "R14"), nil
	case Lt:
		return l.expandCompare("LT", "R15"), nil
	case Gt:
		return l.expandCompare("GT", "R15"), nil
	default:
		return nil, fmt.Errorf("unrecognized arithmetic operation '%s'", op.Operation)
	}
}

// binaryInPlace pops the two topmost stack values (y then x) and writes 'comp' (expressed in
// terms of the older value 'M' and the popped one 'D') back in place of 'x', the new stack top.
func binaryInPlace(comp string) []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "AM", Comp: "M-1"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"}, asm.CInstruction{Dest: "M", Comp: comp},
	}
}

// unaryInPlace rewrites the stack's top in place with 'comp' (expressed in terms of 'M').
func unaryInPlace(comp string) []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"}, asm.CInstruction{Dest: "M", Comp: comp},
	}
}

// expandCompare emits the call-site trampoline for a comparison: it stashes a fresh return
// address in 'reg' and jumps into the shared helper named 'helper' ("EQ", "LT" or "GT").
//
// EQ stashes its return address in R14; LT and GT share R15 since neither is ever mid-flight
// when the other runs (both eventually reduce to the same shared subtraction-and-jump helper).
func (l *Lowerer) expandCompare(helper string, reg string) []asm.Instruction {
	ret := l.labels.Next(fmt.Sprintf("RET_ADDR_%s", helper))
	return []asm.Instruction{
		asm.AInstruction{Location: ret}, asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: helper}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: ret},
	}
}

// emitComparisonHelper generates the shared body for one of EQ/LT/GT: it computes x - y for
// the two popped operands, assumes the result is true (-1), jumps past the correction if the
// given 'jump' condition holds, otherwise zeroes the stack top, then returns through 'reg'.
func (l *Lowerer) emitComparisonHelper(label, reg, jump string) []asm.Instruction {
	done := label + "_DONE"
	return []asm.Instruction{
		asm.LabelDecl{Name: label},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "AM", Comp: "M-1"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"}, asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.AInstruction{Location: done}, asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"}, asm.CInstruction{Dest: "M", Comp: "0"},
		asm.LabelDecl{Name: done},
		asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Comp: "0", Jump: "JMP"},
	}
}

// ----------------------------------------------------------------------------
// Control flow expansion

func (l *Lowerer) expandGotoOp(op GotoOp) ([]asm.Instruction, error) {
	target := l.namespaced(op.Label)

	switch op.Jump {
	case Unconditional:
		return []asm.Instruction{asm.AInstruction{Location: target}, asm.CInstruction{Comp: "0", Jump: "JMP"}}, nil
	case Conditional:
		instructions := popToD()
		return append(instructions, asm.AInstruction{Location: target}, asm.CInstruction{Comp: "D", Jump: "JNE"}), nil
	default:
		return nil, fmt.Errorf("unrecognized jump type '%s'", op.Jump)
	}
}

// ----------------------------------------------------------------------------
// Function/Call/Return expansion

// expandFuncDecl opens a new function's label namespace and zero-initializes its locals.
func (l *Lowerer) expandFuncDecl(op FuncDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("function declaration is missing its 'Name'")
	}
	l.fn = op.Name

	instructions := []asm.Instruction{asm.LabelDecl{Name: op.Name}}
	switch {
	case op.NLocal == 0:
		return instructions, nil
	case op.NLocal <= 2:
		for i := uint8(0); i < op.NLocal; i++ {
			instructions = append(instructions, pushZero()...)
		}
		return instructions, nil
	default:
		loop := fmt.Sprintf("%s$LOCALS_INIT", op.Name)
		instructions = append(instructions,
			asm.AInstruction{Location: fmt.Sprint(op.NLocal)}, asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"},
			asm.LabelDecl{Name: loop},
		)
		instructions = append(instructions, pushZero()...)
		instructions = append(instructions,
			asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "MD", Comp: "M-1"},
			asm.AInstruction{Location: loop}, asm.CInstruction{Comp: "D", Jump: "JGT"},
		)
		return instructions, nil
	}
}

// pushZero pushes a constant 0 on top of the stack, used to zero-initialize locals.
func pushZero() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// expandCall emits the call-site trampoline: it stashes the argument count and the callee's
// address in R13/R14 (out of band, so the shared CALL helper never has to parse them out of a
// label), computes a fresh return address into D, and jumps into the shared helper.
func (l *Lowerer) expandCall(op FuncCallOp) []asm.Instruction {
	prefix := fmt.Sprintf("%s$ret", l.fn)
	if l.fn == "" {
		prefix = "Bootstrap$ret"
	}
	ret := l.labels.Next(prefix)

	return []asm.Instruction{
		asm.AInstruction{Location: fmt.Sprint(op.NArgs)}, asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: op.Name}, asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "R14"}, asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: ret}, asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "CALL"}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: ret},
	}
}

// emitCallHelper generates the shared "CALL" runtime routine. On entry D already holds the
// return address (computed by the call-site trampoline), R13 holds the argument count and R14
// the callee's address. It pushes the return address and the four saved segment pointers,
// repositions ARG/LCL for the callee's frame, then jumps to the callee.
func (l *Lowerer) emitCallHelper() []asm.Instruction {
	instructions := []asm.Instruction{asm.LabelDecl{Name: "CALL"}}
	instructions = append(instructions, pushD()...) // push the return address

	for _, segment := range []string{"LCL", "ARG", "THIS", "THAT"} {
		instructions = append(instructions, asm.AInstruction{Location: segment}, asm.CInstruction{Dest: "D", Comp: "M"})
		instructions = append(instructions, pushD()...)
	}

	instructions = append(instructions,
		// ARG = SP - NArgs - 5
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "D", Comp: "D-M"},
		asm.AInstruction{Location: "5"}, asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "M", Comp: "D"},
		// LCL = SP
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "M", Comp: "D"},
		// jump to the callee
		asm.AInstruction{Location: "R14"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
	return instructions
}

// emitReturnHelper generates the shared "RETURN" runtime routine. It stashes the current LCL
// ('frame') in R14, stores the return address read from frame-5 in R13, transfers the single return
// value down to where the first argument used to be, repositions SP, restores THAT/THIS/ARG/LCL
// by walking 'frame' back down, then jumps to the caller.
func (l *Lowerer) emitReturnHelper() []asm.Instruction {
	instructions := []asm.Instruction{
		asm.LabelDecl{Name: "RETURN"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"}, asm.CInstruction{Dest: "M", Comp: "D"}, // R14 = frame = LCL

		asm.AInstruction{Location: "5"}, asm.CInstruction{Dest: "A", Comp: "D-A"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"}, // R13 = *(frame-5) = return address

		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"}, // *ARG = pop()

		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "D"}, // SP = ARG+1
	}

	for _, segment := range []string{"THAT", "THIS", "ARG", "LCL"} {
		instructions = append(instructions,
			asm.AInstruction{Location: "R14"}, asm.CInstruction{Dest: "AM", Comp: "M-1"}, asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: segment}, asm.CInstruction{Dest: "M", Comp: "D"},
		)
	}

	return append(instructions, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Comp: "0", Jump: "JMP"})
}
