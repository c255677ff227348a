// Package labels generates unique, stable label names for use in generated VM
// and Hack assembly code. Grounded on original_source/src/labels.rs's
// 'Labeller': a per-prefix counter rather than a single global counter,
// so callers can ask for readable names ("WHILE_START0", "IF_TRUE1", ...)
// without having to coordinate a shared numbering scheme themselves.
package labels

import "fmt"

// Generator hands out "<prefix><n>" names, incrementing a counter scoped to
// each distinct prefix. The zero value is ready to use.
type Generator struct {
	counts map[string]uint
}

// Next returns the next unused label for 'prefix' and advances its counter.
func (g *Generator) Next(prefix string) string {
	if g.counts == nil {
		g.counts = map[string]uint{}
	}
	n := g.counts[prefix]
	g.counts[prefix] = n + 1
	return fmt.Sprintf("%s%d", prefix, n)
}

// Reset clears every counter, starting all prefixes back at 0. Called by the
// Jack lowerer at the start of each subroutine and by the VM translator at the
// start of each run, so that label numbering doesn't leak across unrelated units.
func (g *Generator) Reset() { g.counts = nil }
