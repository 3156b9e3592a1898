// Package collective is the facade consumed by external collaborators: the
// serve layer, the operator CLI, and the lint gate. It composes the echo
// store, the resonance tracker, the crystallizer, the quality monitor, and
// the snapshot service behind the core API.
package collective

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/lifecycle"
	"github.com/gftdcojp/echo-memory/internal/metrics"
	"github.com/gftdcojp/echo-memory/internal/resonance"
	"github.com/gftdcojp/echo-memory/internal/snapshot"
	"github.com/gftdcojp/echo-memory/internal/store"
	"github.com/gftdcojp/echo-memory/internal/types"
	"github.com/gftdcojp/echo-memory/internal/wisdom"
)

// Memory is the collective memory core.
type Memory struct {
	store        *store.Store
	tracker      *resonance.Tracker
	crystallizer *wisdom.Crystallizer
	monitor      *metrics.Monitor
	snapshots    *snapshot.Service
	drift        *lifecycle.Manager
	weights      config.WeightConfig
	logger       *zap.Logger
}

// Config holds the collaborators of the facade. Snapshots and Drift may be
// nil for embedded use (the lint tool runs without them).
type Config struct {
	Store        *store.Store
	Tracker      *resonance.Tracker
	Crystallizer *wisdom.Crystallizer
	Monitor      *metrics.Monitor
	Snapshots    *snapshot.Service
	Drift        *lifecycle.Manager
	Weights      config.WeightConfig
	Logger       *zap.Logger
}

// New assembles the facade.
func New(cfg Config) *Memory {
	return &Memory{
		store:        cfg.Store,
		tracker:      cfg.Tracker,
		crystallizer: cfg.Crystallizer,
		monitor:      cfg.Monitor,
		snapshots:    cfg.Snapshots,
		drift:        cfg.Drift,
		weights:      cfg.Weights,
		logger:       cfg.Logger,
	}
}

// AddEchoParams carries the fields of a new echo. A nil Weight takes the
// configured default initial weight.
type AddEchoParams struct {
	Content  string
	Author   string
	Type     types.EchoType
	Weight   *float64
	Metadata map[string]string
}

// AddEcho records a new echo in the immediate layer.
func (m *Memory) AddEcho(p AddEchoParams) (*types.Echo, error) {
	weight := m.weights.DefaultInitial
	if p.Weight != nil {
		weight = *p.Weight
	}

	echo, err := m.store.Add(store.AddRequest{
		Content:  p.Content,
		Author:   p.Author,
		Type:     p.Type,
		Weight:   weight,
		Metadata: p.Metadata,
	})
	if err != nil {
		metrics.EchoesRejected.Inc()
		return nil, err
	}
	metrics.EchoesAdded.WithLabelValues(string(echo.Type)).Inc()
	return echo, nil
}

// GetEcho returns an echo without bumping resonance.
func (m *Memory) GetEcho(id string) (*types.Echo, error) {
	return m.store.Get(id)
}

// SearchEchoes runs an administrative scan; resonance is not bumped.
func (m *Memory) SearchEchoes(f types.Filter) []*types.Echo {
	metrics.Searches.Inc()
	return m.store.Search(f)
}

// Retrieve is a meaningful recall: it returns the echo with resonance and
// weight already updated.
func (m *Memory) Retrieve(id string) (*types.Echo, error) {
	echo, err := m.tracker.Retrieve(id)
	if err != nil {
		return nil, err
	}
	metrics.Retrievals.Inc()
	return echo, nil
}

// DeleteEcho removes an echo; absent ids are a no-op.
func (m *Memory) DeleteEcho(id string) {
	m.store.Delete(id)
}

// Crystallize reports the top k echoes across all layers.
func (m *Memory) Crystallize(k int) []*types.Echo {
	return m.crystallizer.Crystallize(k)
}

// CrystallizeWisdom restricts the report to wisdom-bearing types.
func (m *Memory) CrystallizeWisdom(k int) []*types.Echo {
	return m.crystallizer.CrystallizeWisdom(k)
}

// GetHealth grades the content quality of the store.
func (m *Memory) GetHealth() types.Health {
	return m.monitor.Health()
}

// TriggerSnapshot forces an immediate snapshot cycle. The snapshot is
// returned even when a sink write ultimately failed.
func (m *Memory) TriggerSnapshot(ctx context.Context) (types.Snapshot, error) {
	return m.snapshots.Take(ctx)
}

// TriggerSweep forces an immediate drift pass; returns the number of echoes
// moved, or -1 if a sweep was already in flight.
func (m *Memory) TriggerSweep() int {
	return m.drift.Sweep(time.Now().UTC())
}
