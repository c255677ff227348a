package emulator

// cInstruction is a raw 16-bit C-instruction word, decoded bit-by-bit on demand. Bit layout
// (matching pkg/hack's encoding exactly, since both sides of the assembler/emulator boundary
// must agree on it): '111 a c1 c2 c3 c4 c5 c6 d1 d2 d3 j1 j2 j3'.
type cInstruction uint16

func (c cInstruction) bit(n uint) bool { return (uint16(c)>>n)&1 == 1 }

// usesMemory reports whether the 'a' bit selects RAM[A] (true) or the literal A register
// (false) as the computation's second operand.
func (c cInstruction) usesMemory() bool { return c.bit(12) }

// comp extracts the six computation-select bits (c1..c6, i.e. bits 11 down to 6) as a fixed
// array, the key into the ALU's pattern table.
func (c cInstruction) comp() [6]bool {
	return [6]bool{c.bit(11), c.bit(10), c.bit(9), c.bit(8), c.bit(7), c.bit(6)}
}

func (c cInstruction) destA() bool { return c.bit(5) }
func (c cInstruction) destD() bool { return c.bit(4) }
func (c cInstruction) destM() bool { return c.bit(3) }

func (c cInstruction) jumpNeg() bool { return c.bit(2) }
func (c cInstruction) jumpZero() bool { return c.bit(1) }
func (c cInstruction) jumpPos() bool { return c.bit(0) }
