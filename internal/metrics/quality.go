package metrics

import (
	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/store"
	"github.com/gftdcojp/echo-memory/internal/types"
)

// Monitor computes the content-quality ratio used by the external CI gate.
type Monitor struct {
	store *store.Store
	cfg   config.QualityConfig
}

// NewMonitor creates a quality monitor with the given thresholds.
func NewMonitor(s *store.Store, cfg config.QualityConfig) *Monitor {
	return &Monitor{store: s, cfg: cfg}
}

// Health samples the store and grades it. An empty store has ratio 0 and is
// healthy.
func (m *Monitor) Health() types.Health {
	st := m.store.SampleStats()
	h := Grade(st.Total, st.EmptyCount, m.cfg)
	EmptyRatio.Set(h.EmptyRatio)
	return h
}

// Grade applies the configured thresholds to raw counts. Split out from
// Health so the lint tool can grade simulated populations.
func Grade(total, emptyCount int, cfg config.QualityConfig) types.Health {
	h := types.Health{
		Total:      total,
		EmptyCount: emptyCount,
	}
	if total > 0 {
		h.EmptyRatio = float64(emptyCount) / float64(total)
	}
	switch {
	case h.EmptyRatio <= cfg.HealthyThreshold:
		h.Status = types.StatusHealthy
	case h.EmptyRatio <= cfg.WarningThreshold:
		h.Status = types.StatusWarning
	default:
		h.Status = types.StatusCritical
	}
	return h
}
