// Package wisdom extracts the most significant echoes across all layers.
package wisdom

import (
	"github.com/gftdcojp/echo-memory/internal/store"
	"github.com/gftdcojp/echo-memory/internal/types"
)

// Crystallizer answers bounded top-K queries over the whole table.
// Crystallization is an observational report, not a recall event: it never
// mutates resonance.
type Crystallizer struct {
	store *store.Store
}

// NewCrystallizer creates a crystallizer over the given store.
func NewCrystallizer(s *store.Store) *Crystallizer {
	return &Crystallizer{store: s}
}

// Crystallize returns up to k echoes ranked by composite score descending,
// older created_at winning ties.
func (c *Crystallizer) Crystallize(k int) []*types.Echo {
	return c.store.TopK(k)
}

// CrystallizeWisdom restricts the report to wisdom-bearing echo types.
// Ranking happens before the type filter, matching the original recall
// semantics: a low-ranked revelation does not displace a high-ranked one.
func (c *Crystallizer) CrystallizeWisdom(k int) []*types.Echo {
	ranked := c.store.TopK(k)
	out := make([]*types.Echo, 0, len(ranked))
	for _, e := range ranked {
		if e.Type == types.TypeWisdom || e.Type == types.TypeRevelation {
			out = append(out, e)
		}
	}
	return out
}
