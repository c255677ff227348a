package hack

import "strconv"

// GenerateWords runs the same translation as Generate but returns the packed uint16 form of
// each instruction instead of its 16-character bit-string rendering. This is what the '--bin'
// output format and the emulator's ROM loading both consume; the bit-string form in Generate
// stays around for '--hack' text output, since the two formats share every bit of logic up to
// the final formatting step.
func (cg *CodeGenerator) GenerateWords() ([]uint16, error) {
	bits, err := cg.Generate()
	if err != nil {
		return nil, err
	}

	words := make([]uint16, len(bits))
	for i, line := range bits {
		word, err := strconv.ParseUint(line, 2, 16)
		if err != nil {
			return nil, err
		}
		words[i] = uint16(word)
	}
	return words, nil
}
