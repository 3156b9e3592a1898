package dispatch

import (
	"context"
	"time"

	"github.com/gftdcojp/echo-memory/internal/tuning"
)

// Instrumented wraps a handler so its latency and success feed the tuning
// tracker, and the tracker's penalty dampens its confidence. Failing or
// slow handlers lose dispatch priority until they recover.
type Instrumented struct {
	inner   Handler
	tracker *tuning.Tracker
}

func Instrument(h Handler, tracker *tuning.Tracker) *Instrumented {
	return &Instrumented{inner: h, tracker: tracker}
}

func (i *Instrumented) Name() string { return i.inner.Name() }

func (i *Instrumented) CanHandle(sig *Signal) float64 {
	return i.inner.CanHandle(sig) * i.tracker.Penalty(i.inner.Name())
}

func (i *Instrumented) Handle(ctx context.Context, sig *Signal) (*Response, error) {
	start := time.Now()
	resp, err := i.inner.Handle(ctx, sig)
	i.tracker.Observe(i.inner.Name(), time.Since(start), err == nil)
	return resp, err
}
