package snapshot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/layer"
	"github.com/gftdcojp/echo-memory/internal/store"
	"github.com/gftdcojp/echo-memory/internal/types"
)

type fakeSink struct {
	name   string
	writes atomic.Int32
	fail   atomic.Bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Write(_ context.Context, snap types.Snapshot) error {
	f.writes.Add(1)
	if f.fail.Load() {
		return errors.New("sink unavailable")
	}
	return nil
}

func (f *fakeSink) Ping() error  { return nil }
func (f *fakeSink) Close() error { return nil }

func newTestService(t *testing.T, sinks ...Sink) (*Service, *store.Store) {
	t.Helper()
	layersCfg := config.LayersConfig{
		Boundaries: config.LayerBoundaries{
			Immediate: config.Duration(24 * time.Hour),
			Recent:    config.Duration(7 * 24 * time.Hour),
			Deep:      config.Duration(30 * 24 * time.Hour),
			Ancient:   config.Duration(365 * 24 * time.Hour),
		},
		Capacities: config.LayerCapacities{Immediate: 1000, Recent: 500, Deep: 200, Ancient: 100},
	}
	weights := config.WeightConfig{Max: 1000, RetrievalFactor: 1.05, DefaultInitial: 1.0}
	s := store.New(layer.NewPolicyEngine(layersCfg), weights, zap.NewNop())

	quality := config.QualityConfig{HealthyThreshold: 0.05, WarningThreshold: 0.10}
	snapCfg := config.SnapshotConfig{
		Interval: config.Duration(time.Hour),
		Timeout:  config.Duration(time.Second),
		Retries:  2,
		Breaker: config.BreakerConfig{
			MaxFailures: 100, // keep the breaker out of retry tests
			OpenTimeout: config.Duration(time.Minute),
		},
	}
	return NewService(s, quality, snapCfg, sinks, zap.NewNop()), s
}

func TestTakeWritesToAllSinks(t *testing.T) {
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b"}
	svc, s := newTestService(t, a, b)

	if _, err := s.Add(store.AddRequest{Content: "real", Author: "alice", Type: types.TypeMemory, Weight: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(store.AddRequest{Content: "", Type: types.TypeMemory, Weight: 4}); err != nil {
		t.Fatal(err)
	}

	snap, err := svc.Take(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if a.writes.Load() != 1 || b.writes.Load() != 1 {
		t.Errorf("writes = %d/%d, want 1/1", a.writes.Load(), b.writes.Load())
	}
	if snap.Total != 2 || snap.EmptyCount != 1 {
		t.Errorf("snapshot = %+v, want 2 total, 1 empty", snap)
	}
	if snap.EmptyRatio != 0.5 || snap.Status != types.StatusCritical {
		t.Errorf("snapshot grading = %v/%s", snap.EmptyRatio, snap.Status)
	}
	if snap.LayerCounts["immediate"] != 2 {
		t.Errorf("tier counts = %v", snap.LayerCounts)
	}
	if snap.UniqueAuthors != 1 {
		t.Errorf("unique authors = %d, want 1", snap.UniqueAuthors)
	}
	if snap.AverageWeight != 3 {
		t.Errorf("average weight = %v, want 3", snap.AverageWeight)
	}
}

func TestTakeRetriesFailedSink(t *testing.T) {
	flaky := &fakeSink{name: "flaky"}
	flaky.fail.Store(true)
	svc, _ := newTestService(t, flaky)

	_, err := svc.Take(context.Background())
	if !errors.Is(err, types.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	// Initial attempt plus 2 retries.
	if got := flaky.writes.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestTakeIsolatesSinkFailures(t *testing.T) {
	dead := &fakeSink{name: "dead"}
	dead.fail.Store(true)
	live := &fakeSink{name: "live"}
	svc, _ := newTestService(t, dead, live)

	snap, err := svc.Take(context.Background())
	if !errors.Is(err, types.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	// The healthy sink still got the snapshot, and the snapshot came back.
	if live.writes.Load() != 1 {
		t.Errorf("live writes = %d, want 1", live.writes.Load())
	}
	if snap.Timestamp.IsZero() {
		t.Error("snapshot not returned alongside sink error")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	flaky := &fakeSink{name: "flaky"}
	flaky.fail.Store(true)
	svc, _ := newTestService(t, flaky)
	// Tighten the breaker for this test.
	svc.cfg.Retries = 0
	svc.breakers = NewService(svc.store, svc.quality, config.SnapshotConfig{
		Timeout: config.Duration(time.Second),
		Breaker: config.BreakerConfig{MaxFailures: 2, OpenTimeout: config.Duration(time.Minute)},
	}, []Sink{flaky}, zap.NewNop()).breakers

	for i := 0; i < 5; i++ {
		svc.Take(context.Background())
	}
	// Two real attempts trip the breaker; later cycles are rejected without
	// reaching the sink.
	if got := flaky.writes.Load(); got != 2 {
		t.Errorf("sink attempts = %d, want 2 (breaker open)", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	svc, _ := newTestService(t, &fakeSink{name: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, 10*time.Millisecond) }()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
