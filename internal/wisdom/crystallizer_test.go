package wisdom

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/layer"
	"github.com/gftdcojp/echo-memory/internal/store"
	"github.com/gftdcojp/echo-memory/internal/types"
)

func newTestCrystallizer(t *testing.T) (*Crystallizer, *store.Store) {
	t.Helper()
	cfg := config.LayersConfig{
		Boundaries: config.LayerBoundaries{
			Immediate: config.Duration(24 * time.Hour),
			Recent:    config.Duration(7 * 24 * time.Hour),
			Deep:      config.Duration(30 * 24 * time.Hour),
			Ancient:   config.Duration(365 * 24 * time.Hour),
		},
		Capacities: config.LayerCapacities{Immediate: 1000, Recent: 500, Deep: 200, Ancient: 100},
	}
	weights := config.WeightConfig{Max: 1000, RetrievalFactor: 1.05, DefaultInitial: 1.0}
	s := store.New(layer.NewPolicyEngine(cfg), weights, zap.NewNop())
	return NewCrystallizer(s), s
}

func TestCrystallizeTopK(t *testing.T) {
	c, s := newTestCrystallizer(t)

	if _, err := s.Add(store.AddRequest{Content: "minor", Type: types.TypeInteraction, Weight: 10}); err != nil {
		t.Fatal(err)
	}
	major, err := s.Add(store.AddRequest{Content: "major", Type: types.TypeWisdom, Weight: 50})
	if err != nil {
		t.Fatal(err)
	}

	got := c.Crystallize(1)
	if len(got) != 1 || got[0].ID != major.ID {
		t.Fatalf("Crystallize(1) = %v, want the major echo", got)
	}

	// k larger than the population returns everything.
	if got := c.Crystallize(10); len(got) != 2 {
		t.Errorf("Crystallize(10) len = %d, want 2", len(got))
	}

	// Observational: crystallize must not bump resonance.
	stored, err := s.Get(major.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Resonance != 0 {
		t.Errorf("resonance = %d, crystallize must not mutate", stored.Resonance)
	}
}

func TestCrystallizeWisdomFiltersAfterRanking(t *testing.T) {
	c, s := newTestCrystallizer(t)

	if _, err := s.Add(store.AddRequest{Content: "loud gossip", Type: types.TypeInteraction, Weight: 100}); err != nil {
		t.Fatal(err)
	}
	insight, err := s.Add(store.AddRequest{Content: "quiet insight", Type: types.TypeWisdom, Weight: 50})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(store.AddRequest{Content: "revelation", Type: types.TypeRevelation, Weight: 10}); err != nil {
		t.Fatal(err)
	}

	// k=1 ranks the interaction first; the wisdom filter then leaves nothing.
	if got := c.CrystallizeWisdom(1); len(got) != 0 {
		t.Errorf("CrystallizeWisdom(1) = %v, want empty (top slot held by interaction)", got)
	}

	got := c.CrystallizeWisdom(3)
	if len(got) != 2 {
		t.Fatalf("CrystallizeWisdom(3) len = %d, want 2", len(got))
	}
	if got[0].ID != insight.ID {
		t.Errorf("first = %s, want the higher-scoring wisdom echo", got[0].Content)
	}
}
