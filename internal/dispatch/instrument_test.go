package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gftdcojp/echo-memory/internal/tuning"
)

func TestInstrumentedDampensFailingHandler(t *testing.T) {
	tracker := tuning.NewTracker()
	flaky := &stubHandler{name: "flaky", confidence: 0.8, err: errors.New("boom")}
	h := Instrument(flaky, tracker)

	sig := newSignal(nil)
	assert.Equal(t, 0.8, h.CanHandle(sig), "no penalty before observations")

	for i := 0; i < 10; i++ {
		h.Handle(context.Background(), sig)
	}

	damped := h.CanHandle(sig)
	assert.Less(t, damped, 0.8, "confidence should shrink after failures")
}

func TestInstrumentedRecovery(t *testing.T) {
	tracker := tuning.NewTracker()
	handler := &stubHandler{name: "h", confidence: 0.8, err: errors.New("boom")}
	h := Instrument(handler, tracker)

	sig := newSignal(nil)
	for i := 0; i < 5; i++ {
		h.Handle(context.Background(), sig)
	}
	damped := h.CanHandle(sig)
	require.Less(t, damped, 0.8)

	// Handler recovers; penalty relaxes as successes accumulate.
	handler.err = nil
	for i := 0; i < 50; i++ {
		h.Handle(context.Background(), sig)
	}
	assert.Greater(t, h.CanHandle(sig), damped)
}

func TestInstrumentedFailingLosesDispatch(t *testing.T) {
	tracker := tuning.NewTracker()
	r := NewRegistry(zap.NewNop())

	flaky := &stubHandler{name: "flaky", confidence: 0.9, err: errors.New("boom")}
	steady := &stubHandler{name: "steady", confidence: 0.5}
	r.Register(Instrument(flaky, tracker))
	r.Register(Instrument(steady, tracker))

	sig := newSignal(nil)
	for i := 0; i < 20; i++ {
		resp, err := r.Dispatch(context.Background(), sig)
		require.NoError(t, err)
		require.NotNil(t, resp)
	}

	// Once flaky's penalty bites, dispatch goes straight to steady.
	flakyCallsBefore := flaky.calls
	for i := 0; i < 5; i++ {
		r.Dispatch(context.Background(), sig)
	}
	assert.Equal(t, flakyCallsBefore, flaky.calls, "damped handler should no longer win dispatch")
}
