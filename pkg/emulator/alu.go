package emulator

// alu evaluates one of the 18 valid Hack comp patterns against the already-selected operands
// 'x' (always D) and 'y' (A or RAM[A], picked by the caller via the instruction's 'a' bit) and
// reports the three status flags the jump logic consults.
//
// The comp table is keyed purely on the six c1..c6 bits: the 'a' bit never appears here because
// it only decides which value the caller passed in as 'y', not which arithmetic runs -- "A" and
// "M" share every entry below.
func alu(xRaw, yRaw uint16, comp [6]bool) (out uint16, zero, neg, pos bool) {
	x, y := int16(xRaw), int16(yRaw)

	var result int16
	switch comp {
	case [6]bool{true, false, true, false, true, false}:
		result = 0
	case [6]bool{true, true, true, true, true, true}:
		result = 1
	case [6]bool{true, true, true, false, true, false}:
		result = -1
	case [6]bool{false, false, true, true, false, false}:
		result = x
	case [6]bool{true, true, false, false, false, false}:
		result = y
	case [6]bool{false, false, true, true, false, true}:
		result = ^x
	case [6]bool{true, true, false, false, false, true}:
		result = ^y
	case [6]bool{false, false, true, true, true, true}:
		result = -x
	case [6]bool{true, true, false, false, true, true}:
		result = -y
	case [6]bool{false, true, true, true, true, true}:
		result = x + 1
	case [6]bool{true, true, false, true, true, true}:
		result = y + 1
	case [6]bool{false, false, true, true, true, false}:
		result = x - 1
	case [6]bool{true, true, false, false, true, false}:
		result = y - 1
	case [6]bool{false, false, false, false, true, false}:
		result = x + y
	case [6]bool{false, true, false, false, true, true}:
		result = x - y
	case [6]bool{false, false, false, true, true, true}:
		result = y - x
	case [6]bool{false, false, false, false, false, false}:
		result = x & y
	case [6]bool{false, true, false, true, false, true}:
		result = x | y
	default:
		panic("emulator: invalid comp bit pattern, pass-1 should have rejected this program")
	}

	return uint16(result), result == 0, result < 0, result > 0
}
