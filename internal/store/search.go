package store

import (
	"sort"
	"strings"

	"github.com/gftdcojp/echo-memory/internal/types"
)

// DefaultSearchLimit bounds a search whose filter does not set one.
const DefaultSearchLimit = 10

// Search returns echoes matching the filter, ordered by composite score
// descending with more recent created_at winning ties. The result is a
// consistent snapshot taken under the read lock; resonance is not bumped.
func (s *Store) Search(f types.Filter) []*types.Echo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates map[string]struct{}
	switch {
	case f.Layer != nil:
		candidates = s.layers[*f.Layer]
	case f.Author != "":
		candidates = s.byAuthor[f.Author]
	}

	text := strings.ToLower(f.Text)

	var matched []*types.Echo
	consider := func(echo *types.Echo) {
		if f.Author != "" && echo.Author != f.Author {
			return
		}
		if f.Type != nil && echo.Type != *f.Type {
			return
		}
		if f.Layer != nil && echo.Layer != *f.Layer {
			return
		}
		if text != "" && !strings.Contains(strings.ToLower(echo.Content), text) {
			return
		}
		matched = append(matched, echo)
	}

	if candidates != nil {
		for id := range candidates {
			if echo, ok := s.echoes[id]; ok {
				consider(echo)
			}
		}
	} else {
		for _, echo := range s.echoes {
			consider(echo)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := matched[i].Score(), matched[j].Score()
		if si != sj {
			return si > sj
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*types.Echo, len(matched))
	for i, echo := range matched {
		out[i] = echo.Clone()
	}
	return out
}

// TopK returns up to k echoes across all layers by composite score
// descending, with the older created_at winning ties: long-lived survivors
// count as more proven. Read-only; resonance is not bumped.
func (s *Store) TopK(k int) []*types.Echo {
	if k <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*types.Echo, 0, len(s.echoes))
	for _, echo := range s.echoes {
		all = append(all, echo)
	}

	sort.SliceStable(all, func(i, j int) bool {
		si, sj := all[i].Score(), all[j].Score()
		if si != sj {
			return si > sj
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if len(all) > k {
		all = all[:k]
	}
	out := make([]*types.Echo, len(all))
	for i, echo := range all {
		out[i] = echo.Clone()
	}
	return out
}
