package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/metrics"
	"github.com/gftdcojp/echo-memory/internal/store"
	"github.com/gftdcojp/echo-memory/internal/types"
)

// Service samples aggregate store statistics on a timer and fans them out to
// the configured sinks. Sink failures are retried a bounded number of times,
// then the cycle is skipped; they never affect the store or the drift loop.
type Service struct {
	store    *store.Store
	quality  config.QualityConfig
	cfg      config.SnapshotConfig
	sinks    []Sink
	breakers map[string]*gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewService creates the snapshot service. Each sink gets its own circuit
// breaker so one dead collaborator trips open instead of burning retries
// every cycle.
func NewService(s *store.Store, quality config.QualityConfig, cfg config.SnapshotConfig, sinks []Sink, logger *zap.Logger) *Service {
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(sinks))
	for _, sink := range sinks {
		maxFailures := cfg.Breaker.MaxFailures
		if maxFailures == 0 {
			maxFailures = 5
		}
		breakers[sink.Name()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "snapshot-" + sink.Name(),
			Timeout: cfg.Breaker.OpenTimeout.Duration(),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		})
	}
	return &Service{
		store:    s,
		quality:  quality,
		cfg:      cfg,
		sinks:    sinks,
		breakers: breakers,
		logger:   logger,
	}
}

// Run starts the periodic snapshot loop. Cycle errors are logged, never
// propagated; each tick is independently fault-isolated.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Take(ctx); err != nil {
				s.logger.Error("snapshot cycle error", zap.Error(err))
			}
		}
	}
}

// Take samples the store and writes one snapshot to every sink. The snapshot
// is always returned; a non-nil error means at least one sink ultimately
// failed after retries.
func (s *Service) Take(ctx context.Context) (types.Snapshot, error) {
	snap := s.build()

	var failed int
	for _, sink := range s.sinks {
		if err := s.write(ctx, sink, snap); err != nil {
			failed++
			metrics.SnapshotFailures.WithLabelValues(sink.Name()).Inc()
			s.logger.Error("snapshot sink write failed, skipping cycle for sink",
				zap.String("sink", sink.Name()),
				zap.Error(err),
			)
			continue
		}
		metrics.SnapshotsWritten.WithLabelValues(sink.Name()).Inc()
	}

	s.logger.Info("memory snapshot taken",
		zap.Int("total", snap.Total),
		zap.Float64("empty_ratio", snap.EmptyRatio),
		zap.String("status", string(snap.Status)),
		zap.Int("sinks_failed", failed),
	)

	if failed > 0 {
		return snap, fmt.Errorf("%w: %d of %d sinks failed", types.ErrPersistence, failed, len(s.sinks))
	}
	return snap, nil
}

func (s *Service) build() types.Snapshot {
	st := s.store.SampleStats()
	health := metrics.Grade(st.Total, st.EmptyCount, s.quality)

	counts := make(map[string]int, len(types.Layers))
	for _, l := range types.Layers {
		counts[l.String()] = st.LayerCounts[l]
	}

	return types.Snapshot{
		Timestamp:      time.Now().UTC(),
		LayerCounts:    counts,
		Total:          health.Total,
		EmptyCount:     health.EmptyCount,
		EmptyRatio:     health.EmptyRatio,
		Status:         health.Status,
		UniqueAuthors:  st.UniqueAuthors,
		AverageWeight:  st.AverageWeight,
		TotalResonance: st.TotalResonance,
	}
}

func (s *Service) write(ctx context.Context, sink Sink, snap types.Snapshot) error {
	breaker := s.breakers[sink.Name()]

	var lastErr error
	for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
		start := time.Now()
		_, err := breaker.Execute(func() (interface{}, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout.Duration())
			defer cancel()
			return nil, sink.Write(attemptCtx, snap)
		})
		metrics.SnapshotDuration.WithLabelValues(sink.Name()).Observe(time.Since(start).Seconds())
		if err == nil {
			return nil
		}
		lastErr = err

		// An open breaker will not recover within this cycle.
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("snapshot write attempt failed",
			zap.String("sink", sink.Name()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return lastErr
}
