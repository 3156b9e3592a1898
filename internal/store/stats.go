package store

import "github.com/gftdcojp/echo-memory/internal/types"

// Stats is an aggregate view over the table, sampled atomically.
type Stats struct {
	Total          int
	EmptyCount     int
	LayerCounts    map[types.Layer]int
	UniqueAuthors  int
	AverageWeight  float64
	TotalResonance int
}

// SampleStats computes aggregate counts under a single read lock so snapshot
// and health reads observe a consistent table.
func (s *Store) SampleStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Total:         len(s.echoes),
		LayerCounts:   make(map[types.Layer]int, len(types.Layers)),
		UniqueAuthors: len(s.byAuthor),
	}
	for _, l := range types.Layers {
		st.LayerCounts[l] = len(s.layers[l])
	}

	var weightSum float64
	for _, echo := range s.echoes {
		if echo.Empty() {
			st.EmptyCount++
		}
		weightSum += echo.Weight
		st.TotalResonance += echo.Resonance
	}
	if st.Total > 0 {
		st.AverageWeight = weightSum / float64(st.Total)
	}
	return st
}
