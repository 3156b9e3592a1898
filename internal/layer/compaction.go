package layer

import (
	"sort"

	"github.com/gftdcojp/echo-memory/internal/types"
)

// EvictionCandidates returns the ids that must be evicted to bring a layer
// population of members back under capacity. Candidates are the lowest
// composite scores; on equal scores the older created_at goes first, since it
// has had more opportunity to accrue resonance and still did not.
//
// A capacity of 0 means unbounded and yields no candidates. The input slice
// is not modified.
func EvictionCandidates(members []*types.Echo, capacity int) []string {
	if capacity <= 0 || len(members) <= capacity {
		return nil
	}

	sorted := make([]*types.Echo, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := sorted[i].Score(), sorted[j].Score()
		if si != sj {
			return si < sj
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	excess := len(sorted) - capacity
	ids := make([]string, 0, excess)
	for _, e := range sorted[:excess] {
		ids = append(ids, e.ID)
	}
	return ids
}
