// Package lifecycle drives the periodic drift sweep that re-buckets echoes
// into their age-appropriate layer and enforces layer capacities.
package lifecycle

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/gftdcojp/echo-memory/internal/metrics"
	"github.com/gftdcojp/echo-memory/internal/store"
	"github.com/gftdcojp/echo-memory/internal/types"
)

// Manager owns the drift sweep. Ticks never overlap: the loop body runs
// synchronously, and a manual trigger that races a scheduled tick is skipped.
type Manager struct {
	store    *store.Store
	logger   *zap.Logger
	sweeping atomic.Bool
}

// NewManager creates a drift manager over the given store.
func NewManager(s *store.Store, logger *zap.Logger) *Manager {
	return &Manager{store: s, logger: logger}
}

// Run starts the periodic drift loop. It returns when ctx is canceled; an
// in-flight sweep runs to completion first.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Sweep(time.Now().UTC())
		}
	}
}

// Sweep performs one drift pass at the given observation time: relabel every
// aged echo, then compact each layer that gained members. Re-running with no
// elapsed time converges to zero moves. Returns how many echoes moved, or -1
// if another sweep was already in flight.
func (m *Manager) Sweep(now time.Time) int {
	if !m.sweeping.CompareAndSwap(false, true) {
		m.logger.Debug("sweep already in flight, skipping")
		return -1
	}
	defer m.sweeping.Store(false)

	start := time.Now()
	gained := m.store.Sweep(now)

	moves := 0
	for l, n := range gained {
		moves += n
		metrics.SweepMoves.WithLabelValues(l.String()).Add(float64(n))
		evicted := m.store.Compact(l)
		if len(evicted) > 0 {
			metrics.Evictions.WithLabelValues(l.String()).Add(float64(len(evicted)))
			m.logger.Info("layer compacted",
				zap.String("layer", l.String()),
				zap.Int("evicted", len(evicted)),
			)
		}
	}

	// Defensive: compaction above must leave every layer within capacity.
	// If it did not, log and self-heal with a forced extra pass.
	if over := m.store.OverCapacity(); len(over) > 0 {
		metrics.InvariantViolations.Inc()
		for _, l := range over {
			m.logger.Error("capacity invariant violated, forcing compaction",
				zap.String("layer", l.String()))
			m.store.Compact(l)
		}
	}

	m.publishLayerGauges()
	metrics.SweepDuration.Observe(time.Since(start).Seconds())

	if moves > 0 {
		m.logger.Info("drift sweep complete",
			zap.Int("moves", moves),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return moves
}

func (m *Manager) publishLayerGauges() {
	st := m.store.SampleStats()
	for _, l := range types.Layers {
		metrics.LayerEchoCount.WithLabelValues(l.String()).Set(float64(st.LayerCounts[l]))
	}
}
