// Package emulator models the Hack CPU, RAM and ROM closely enough to run a compiled
// program and observe the resulting machine state, which is how this module's own test
// suite asserts end-to-end correctness (see the scenarios named in the project docs:
// SimpleAdd, StackTest, Pointer, FibonacciElement, statics-across-modules) without needing
// an external CPU emulator binary.
//
// Grounded on original_source/src/hack/emulator.rs: the same RAM_SIZE constant, the same
// Registers/ALU/CInstruction split, and the same step/run shape, re-expressed as idiomatic
// Go (a panicking decode path stands in for the Rust 'panic!' on a comp pattern that pass-1
// assembling should have already made unreachable, not a user-facing error).
package emulator

// RAMSize is the number of addressable 16-bit words in the Hack computer's RAM (16K words =
// 32 KiB). The memory-mapped SCREEN (16384) and KBD (24576) addresses lie outside this array.
const RAMSize = 16 * 1024

// RAM is the Hack computer's single flat address space.
type RAM struct {
	words [RAMSize]uint16
}

// Init pre-loads 'pairs' of (address, value) into RAM, overwriting whatever was there.
// Convenient for seeding a test's starting state (e.g. priming SP or a segment pointer)
// without stepping the program that would otherwise set it up.
func (r *RAM) Init(pairs map[uint16]uint16) {
	for addr, val := range pairs {
		r.words[addr] = val
	}
}

// Get returns the word stored at 'addr'.
func (r *RAM) Get(addr uint16) uint16 { return r.words[addr] }

// Set stores 'val' at 'addr'.
func (r *RAM) Set(addr uint16, val uint16) { r.words[addr] = val }

// Registers holds the Hack CPU's two user-visible registers.
type Registers struct {
	A uint16
	D uint16
}

// Emulator steps a compiled Hack program (a ROM image) against a RAM it owns.
//
// It borrows the ROM slice read-only: the Emulator never mutates it, only its own RAM and
// registers, matching the ownership note in the data model (the emulator owns its RAM, it
// borrows the ROM).
type Emulator struct {
	RAM RAM
	Reg Registers

	rom []uint16
	pc  uint16
}

// New prepares an Emulator ready to execute 'rom' starting at address 0.
func New(rom []uint16) *Emulator {
	return &Emulator{rom: rom}
}

// PC returns the current program counter (the index into ROM about to be fetched).
func (e *Emulator) PC() uint16 { return e.pc }

// Run executes 'ticks' fetch-decode-execute cycles, halting early (without error) once the
// program counter runs past the end of ROM -- mirroring real hardware fetching from an
// unmapped address rather than trapping.
func (e *Emulator) Run(ticks int) {
	for i := 0; i < ticks; i++ {
		if !e.Step() {
			return
		}
	}
}

// Step executes a single fetch-decode-execute cycle. It reports whether an instruction was
// actually fetched; once 'pc' walks off the end of ROM, Step is a no-op and returns false so
// callers (Run, or a test driving the emulator tick-by-tick) can detect the program halted.
func (e *Emulator) Step() bool {
	if int(e.pc) >= len(e.rom) {
		return false
	}

	inst := e.rom[e.pc]
	if inst>>15 == 0 {
		// A-instruction: the low 15 bits are loaded verbatim into A.
		e.Reg.A = inst
		e.pc++
		return true
	}

	c := cInstruction(inst)
	addr := e.Reg.A // latched before any d1 writeback touches A this cycle
	x := e.Reg.D

	y := e.Reg.A
	if c.usesMemory() {
		y = e.RAM.Get(e.Reg.A)
	}

	out, zero, neg, pos := alu(x, y, c.comp())

	if c.destA() {
		e.Reg.A = out
	}
	if c.destD() {
		e.Reg.D = out
	}
	if c.destM() {
		// Writes through 'addr', the A register's value from before this instruction's own
		// d1 writeback, not whatever the destA writeback above may have just stored into A. This
		// ordering is the one genuinely easy-to-get-wrong subtlety in the whole CPU model.
		e.RAM.Set(addr, out)
	}

	if (c.jumpNeg() && neg) || (c.jumpZero() && zero) || (c.jumpPos() && pos) {
		e.pc = addr
	} else {
		e.pc++
	}
	return true
}
