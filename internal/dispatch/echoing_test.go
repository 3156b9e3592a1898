package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gftdcojp/echo-memory/internal/collective"
	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/layer"
	"github.com/gftdcojp/echo-memory/internal/lifecycle"
	"github.com/gftdcojp/echo-memory/internal/metrics"
	"github.com/gftdcojp/echo-memory/internal/resonance"
	"github.com/gftdcojp/echo-memory/internal/snapshot"
	"github.com/gftdcojp/echo-memory/internal/store"
	"github.com/gftdcojp/echo-memory/internal/types"
	"github.com/gftdcojp/echo-memory/internal/wisdom"
)

func newTestCollective(t *testing.T) *collective.Memory {
	t.Helper()
	cfg := config.DefaultConfig()
	echoStore := store.New(layer.NewPolicyEngine(cfg.Layers), cfg.Weight, zap.NewNop())
	return collective.New(collective.Config{
		Store:        echoStore,
		Tracker:      resonance.NewTracker(echoStore, zap.NewNop()),
		Crystallizer: wisdom.NewCrystallizer(echoStore),
		Monitor:      metrics.NewMonitor(echoStore, cfg.Quality),
		Snapshots:    snapshot.NewService(echoStore, cfg.Quality, cfg.Snapshot, nil, zap.NewNop()),
		Drift:        lifecycle.NewManager(echoStore, zap.NewNop()),
		Weights:      cfg.Weight,
		Logger:       zap.NewNop(),
	})
}

func TestEchoingHandlerRemembers(t *testing.T) {
	mem := newTestCollective(t)
	h := NewEchoingHandler(mem)

	sig := &Signal{
		Source:    "chat",
		Intent:    "remember",
		Context:   map[string]bool{"from_admin": true},
		Content:   "the maintenance window moved",
		Author:    "alice",
		Timestamp: time.Now(),
	}

	resp, err := h.Handle(context.Background(), sig)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Metadata["echo_id"])

	echo, err := mem.GetEcho(resp.Metadata["echo_id"])
	require.NoError(t, err)
	assert.Equal(t, "alice", echo.Author)
	assert.Equal(t, types.TypeInteraction, echo.Type)
	// Admin signals carry tripled energy into the initial weight.
	assert.Equal(t, 3.0, echo.Weight)
	assert.Equal(t, "chat", echo.Metadata["source"])
}

func TestEchoingHandlerQuestionType(t *testing.T) {
	mem := newTestCollective(t)
	h := NewEchoingHandler(mem)

	resp, err := h.Handle(context.Background(), &Signal{
		Intent:  "remember",
		Content: "who owns the deploy key?",
		Author:  "bob",
	})
	require.NoError(t, err)

	echo, err := mem.GetEcho(resp.Metadata["echo_id"])
	require.NoError(t, err)
	assert.Equal(t, types.TypeQuestion, echo.Type)
}

func TestEchoingHandlerRecall(t *testing.T) {
	mem := newTestCollective(t)
	h := NewEchoingHandler(mem)

	weight := 5.0
	_, err := mem.AddEcho(collective.AddEchoParams{
		Content: "deploy key lives in the vault",
		Author:  "alice",
		Type:    types.TypeWisdom,
		Weight:  &weight,
	})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), &Signal{
		Intent:  "recall",
		Content: "deploy key",
		Author:  "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, "recalled 1 echoes", resp.Text)
}

func TestEchoingHandlerConfidence(t *testing.T) {
	h := NewEchoingHandler(newTestCollective(t))

	assert.Equal(t, 0.9, h.CanHandle(&Signal{Intent: "remember", Content: "x"}))
	assert.Equal(t, 0.9, h.CanHandle(&Signal{Intent: "recall", Content: "x"}))
	assert.Equal(t, 0.3, h.CanHandle(&Signal{Intent: "chatter", Content: "x"}))
	assert.Equal(t, 0.0, h.CanHandle(&Signal{Intent: "chatter", Content: "   "}))
}
