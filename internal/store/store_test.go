package store

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/layer"
	"github.com/gftdcojp/echo-memory/internal/types"
)

func testLayersConfig() config.LayersConfig {
	return config.LayersConfig{
		Boundaries: config.LayerBoundaries{
			Immediate: config.Duration(24 * time.Hour),
			Recent:    config.Duration(7 * 24 * time.Hour),
			Deep:      config.Duration(30 * 24 * time.Hour),
			Ancient:   config.Duration(365 * 24 * time.Hour),
		},
		Capacities: config.LayerCapacities{
			Immediate: 1000,
			Recent:    500,
			Deep:      200,
			Ancient:   100,
			Eternal:   0,
		},
	}
}

func testWeights() config.WeightConfig {
	return config.WeightConfig{
		Max:             1000,
		RetrievalFactor: 1.05,
		DefaultInitial:  1.0,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(layer.NewPolicyEngine(testLayersConfig()), testWeights(), zap.NewNop())
}

func newTestStoreWithCapacities(t *testing.T, c config.LayerCapacities) *Store {
	t.Helper()
	cfg := testLayersConfig()
	cfg.Capacities = c
	return New(layer.NewPolicyEngine(cfg), testWeights(), zap.NewNop())
}

func TestAddAndGet(t *testing.T) {
	s := newTestStore(t)

	echo, err := s.Add(AddRequest{
		Content:  "first deploy went green",
		Author:   "alice",
		Type:     types.TypeWisdom,
		Weight:   2.5,
		Metadata: map[string]string{"channel": "ops"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if echo.ID == "" {
		t.Fatal("expected generated id")
	}
	if echo.Layer != types.LayerImmediate {
		t.Errorf("layer = %v, want immediate", echo.Layer)
	}
	if echo.Resonance != 0 {
		t.Errorf("resonance = %d, want 0", echo.Resonance)
	}

	got, err := s.Get(echo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != echo.Content || got.Weight != 2.5 {
		t.Errorf("got %+v, want stored echo", got)
	}
	if got.Metadata["channel"] != "ops" {
		t.Errorf("metadata not preserved: %v", got.Metadata)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	s := newTestStore(t)

	cases := []AddRequest{
		{Content: "x", Type: "nonsense", Weight: 1},
		{Content: "x", Type: types.TypeMemory, Weight: -1},
		{Content: "x", Type: types.TypeMemory, Weight: math.NaN()},
		{Content: "x", Type: types.TypeMemory, Weight: math.Inf(1)},
	}
	for _, req := range cases {
		if _, err := s.Add(req); !errors.Is(err, types.ErrInvalidInput) {
			t.Errorf("Add(%+v) err = %v, want ErrInvalidInput", req, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("rejected adds must not be stored, len = %d", s.Len())
	}
}

func TestAddClampsWeightToMax(t *testing.T) {
	s := newTestStore(t)

	echo, err := s.Add(AddRequest{Content: "x", Type: types.TypeMemory, Weight: 5000})
	if err != nil {
		t.Fatal(err)
	}
	if echo.Weight != 1000 {
		t.Errorf("weight = %v, want clamped to 1000", echo.Weight)
	}
}

func TestGetUnknownID(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get("missing"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTouchBumpsResonanceAndWeight(t *testing.T) {
	s := newTestStore(t)

	echo, err := s.Add(AddRequest{Content: "x", Type: types.TypeMemory, Weight: 10})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Touch(echo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Resonance != 1 {
		t.Errorf("resonance = %d, want 1", got.Resonance)
	}
	if math.Abs(got.Weight-10.5) > 1e-9 {
		t.Errorf("weight = %v, want 10.5", got.Weight)
	}
}

func TestTouchWeightCapped(t *testing.T) {
	s := newTestStore(t)

	echo, err := s.Add(AddRequest{Content: "x", Type: types.TypeMemory, Weight: 999})
	if err != nil {
		t.Fatal(err)
	}

	var last *types.Echo
	for i := 0; i < 100; i++ {
		last, err = s.Touch(echo.ID)
		if err != nil {
			t.Fatal(err)
		}
	}
	if last.Weight > 1000 {
		t.Errorf("weight = %v, must never exceed 1000", last.Weight)
	}
	if last.Resonance != 100 {
		t.Errorf("resonance = %d, want 100", last.Resonance)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	echo, err := s.Add(AddRequest{Content: "x", Type: types.TypeMemory, Weight: 1})
	if err != nil {
		t.Fatal(err)
	}

	s.Delete(echo.ID)
	s.Delete(echo.ID) // second delete is a no-op

	if _, err := s.Get(echo.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
}

func TestAddCompactsImmediateAtCapacity(t *testing.T) {
	s := newTestStoreWithCapacities(t, config.LayerCapacities{
		Immediate: 3,
		Recent:    500,
		Deep:      200,
		Ancient:   100,
	})

	// The first echo has the lowest score and should be the eviction victim.
	low, err := s.Add(AddRequest{Content: "low", Type: types.TypeMemory, Weight: 1})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Add(AddRequest{
			Content: fmt.Sprintf("heavy %d", i),
			Type:    types.TypeMemory,
			Weight:  10,
		}); err != nil {
			t.Fatal(err)
		}
	}

	if s.Len() != 3 {
		t.Errorf("len = %d, want 3 after compaction", s.Len())
	}
	if _, err := s.Get(low.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("lowest-scoring echo should be evicted, err = %v", err)
	}
	if over := s.OverCapacity(); len(over) != 0 {
		t.Errorf("layers over capacity after add: %v", over)
	}
}

func TestSweepIsForwardOnlyAndConverges(t *testing.T) {
	s := newTestStore(t)

	echo, err := s.Add(AddRequest{Content: "x", Type: types.TypeMemory, Weight: 1})
	if err != nil {
		t.Fatal(err)
	}

	// Observed 10 days after creation: immediate -> deep.
	future := time.Now().UTC().Add(10 * 24 * time.Hour)
	gained := s.Sweep(future)
	if gained[types.LayerDeep] != 1 {
		t.Fatalf("gained = %v, want deep:1", gained)
	}

	got, err := s.Get(echo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Layer != types.LayerDeep {
		t.Errorf("layer = %v, want deep", got.Layer)
	}

	// Same observation time again: no moves.
	if gained := s.Sweep(future); len(gained) != 0 {
		t.Errorf("second sweep gained %v, want none", gained)
	}

	// An earlier observation time must not regress the layer.
	if gained := s.Sweep(time.Now().UTC()); len(gained) != 0 {
		t.Errorf("backward sweep gained %v, want none", gained)
	}
	got, _ = s.Get(echo.ID)
	if got.Layer != types.LayerDeep {
		t.Errorf("layer regressed to %v", got.Layer)
	}
}

func TestCompactExemptsEternal(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := s.Add(AddRequest{
			Content: fmt.Sprintf("ancient truth %d", i),
			Type:    types.TypeWisdom,
			Weight:  1,
		}); err != nil {
			t.Fatal(err)
		}
	}
	s.Sweep(time.Now().UTC().Add(400 * 24 * time.Hour))

	if evicted := s.Compact(types.LayerEternal); evicted != nil {
		t.Errorf("eternal compaction evicted %d echoes, want none", len(evicted))
	}
	if s.Len() != 5 {
		t.Errorf("len = %d, want 5", s.Len())
	}
}
