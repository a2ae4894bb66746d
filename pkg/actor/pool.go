package actor

import (
	"slices"

	"github.com/jwebster45206/defcon/pkg/content"
)

type pool struct {
	entries []content.Content
	weights []int
}

func (p *pool) add(c content.Content) {
	p.entries = append(p.entries, c)
	p.weights = append(p.weights, c.Weight())
}

func (p pool) list() []content.Content {
	return slices.Clone(p.entries)
}

// draw picks one entry with probability weight/total over the kept entries.
// Entries with zero weight are never picked.
func (p pool) draw(rng Rand, keep func(content.Content) bool) (content.Content, bool) {
	total := 0
	for i, c := range p.entries {
		if keep != nil && !keep(c) {
			continue
		}
		total += p.weights[i]
	}
	if total <= 0 {
		return nil, false
	}

	r := rng.IntN(total)
	for i, c := range p.entries {
		if keep != nil && !keep(c) {
			continue
		}
		w := p.weights[i]
		if r < w {
			return c, true
		}
		r -= w
	}
	return nil, false
}
