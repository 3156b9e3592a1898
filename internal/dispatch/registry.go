package dispatch

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrNoHandler is returned when no registered handler claims a signal.
var ErrNoHandler = errors.New("dispatch: no handler for signal")

// Response is a handler's answer to a signal.
type Response struct {
	Text string
	// Confidence in [0,1] reports how well the handler matched the signal.
	Confidence float64
	Metadata   map[string]string
}

// Handler is one strategy for answering signals.
type Handler interface {
	Name() string
	// CanHandle returns a confidence in [0,1]; zero means "not mine".
	CanHandle(sig *Signal) float64
	Handle(ctx context.Context, sig *Signal) (*Response, error)
}

// Registry dispatches each signal to the handler with the highest
// confidence multiplied by signal energy. Registration order breaks
// score ties.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register appends a handler. Not safe to call concurrently with itself
// for handlers that must keep a stable tie-break order.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

// Dispatch selects and runs the winning handler. A handler that fails is
// logged and skipped, and the next best handler runs instead.
func (r *Registry) Dispatch(ctx context.Context, sig *Signal) (*Response, error) {
	r.mu.RLock()
	candidates := make([]Handler, len(r.handlers))
	copy(candidates, r.handlers)
	r.mu.RUnlock()

	energy := sig.Energy()

	type scored struct {
		h     Handler
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, h := range candidates {
		conf := h.CanHandle(sig)
		if conf <= 0 {
			continue
		}
		ranked = append(ranked, scored{h: h, score: conf * energy})
	}
	if len(ranked) == 0 {
		return nil, ErrNoHandler
	}

	// Stable selection: earlier registration wins ties.
	for len(ranked) > 0 {
		best := 0
		for i := 1; i < len(ranked); i++ {
			if ranked[i].score > ranked[best].score {
				best = i
			}
		}

		resp, err := ranked[best].h.Handle(ctx, sig)
		if err == nil {
			return resp, nil
		}
		r.logger.Warn("handler failed, trying next",
			zap.String("handler", ranked[best].h.Name()),
			zap.Error(err),
		)
		ranked = append(ranked[:best], ranked[best+1:]...)
	}
	return nil, ErrNoHandler
}
