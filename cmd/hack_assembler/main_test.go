package main

import (
	"os"
	"strings"
	"testing"

	"jackc.dev/n2t/pkg/asm"
	"jackc.dev/n2t/pkg/emulator"
	"jackc.dev/n2t/pkg/hack"
)

// assemble runs the Parser -> Lowerer -> CodeGenerator pipeline over 'src' and returns the
// resulting ROM words, ready to feed an emulator.Emulator. This is this module's own
// self-contained fixture harness; it doesn't depend on any external .asm/.cmp files.
func assemble(t *testing.T, src string) []uint16 {
	t.Helper()

	parser := asm.NewParser(strings.NewReader(src))
	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}

	lowerer := asm.NewLowerer(program)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("lowering: %v", err)
	}

	codegen := hack.NewCodeGenerator(hackProgram, table)
	words, err := codegen.GenerateWords()
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	return words
}

// TestAdd assembles the canonical "Add.asm" (R0 = 2 + 3) and checks the computed result.
func TestAdd(t *testing.T) {
	src := `
@2
D=A
@3
D=D+A
@0
M=D
`
	e := emulator.New(assemble(t, src))
	e.Run(6)

	if got := e.RAM.Get(0); got != 5 {
		t.Fatalf("R0: expected 5, got %d", got)
	}
}

// TestMax assembles the canonical "Max.asm" (R2 = max(R0, R1)), exercising label resolution,
// both a conditional and an unconditional jump, and the infinite-loop halt idiom.
func TestMax(t *testing.T) {
	src := `
@R0
D=M
@R1
D=D-M
@OUTPUT_FIRST
D;JGT
@R1
D=M
@OUTPUT_D
0;JMP
(OUTPUT_FIRST)
@R0
D=M
(OUTPUT_D)
@R2
M=D
(INFINITE_LOOP)
@INFINITE_LOOP
0;JMP
`
	words := assemble(t, src)

	t.Run("first operand greater", func(t *testing.T) {
		e := emulator.New(words)
		e.RAM.Init(map[uint16]uint16{0: 17, 1: 3})
		e.Run(20)
		if got := e.RAM.Get(2); got != 17 {
			t.Fatalf("R2: expected 17, got %d", got)
		}
	})

	t.Run("second operand greater", func(t *testing.T) {
		e := emulator.New(words)
		e.RAM.Init(map[uint16]uint16{0: 3, 1: 17})
		e.Run(20)
		if got := e.RAM.Get(2); got != 17 {
			t.Fatalf("R2: expected 17, got %d", got)
		}
	})

	t.Run("equal operands", func(t *testing.T) {
		e := emulator.New(words)
		e.RAM.Init(map[uint16]uint16{0: 9, 1: 9})
		e.Run(20)
		if got := e.RAM.Get(2); got != 9 {
			t.Fatalf("R2: expected 9, got %d", got)
		}
	})
}

// TestDuplicateLabelFails exercises the assembler's error path: a label defined twice must be
// rejected during pass-1, matching the AsmEncodingError taxonomy (§7).
func TestDuplicateLabelFails(t *testing.T) {
	src := "(LOOP)\n@LOOP\n0;JMP\n(LOOP)\n@0\nD=A\n"
	parser := asm.NewParser(strings.NewReader(src))
	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}

	lowerer := asm.NewLowerer(program)
	if _, _, err := lowerer.Lower(); err == nil {
		t.Fatal("expected an error for a duplicate label definition")
	}
}

// TestCLIWritesHackFile is a smoke test of the Handler/CLI wiring (argument parsing, file IO).
func TestCLIWritesHackFile(t *testing.T) {
	dir := t.TempDir()
	input := dir + "/Add.asm"
	output := dir + "/Add.hack"

	if err := os.WriteFile(input, []byte("@2\nD=A\n@3\nD=D+A\n@0\nM=D\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	status := Handler([]string{input, output}, nil)
	if status != 0 {
		t.Fatalf("expected exit status 0, got %d", status)
	}

	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading generated hack: %v", err)
	}
	lines := strings.Fields(strings.TrimSpace(string(content)))
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines of 16-bit words, got %d", len(lines))
	}
	for _, line := range lines {
		if len(line) != 16 {
			t.Errorf("expected a 16-character bit string, got %q", line)
		}
	}
}
