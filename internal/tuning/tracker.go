package tuning

import (
	"sync"
	"time"
)

const (
	defaultAlpha = 0.2

	// Latencies beyond this start eroding a handler's dispatch penalty.
	slowLatency = 500 * time.Millisecond
)

type handlerStats struct {
	latency *EMA
	success *EMA
	damping *Knob
}

// Tracker keeps per-handler latency and success averages and derives a
// dispatch penalty from them. Penalty 1.0 means no damping; lower values
// shrink a handler's effective confidence.
type Tracker struct {
	mu    sync.Mutex
	alpha float64
	stats map[string]*handlerStats
}

func NewTracker() *Tracker {
	return &Tracker{
		alpha: defaultAlpha,
		stats: make(map[string]*handlerStats),
	}
}

// Observe records one handler invocation.
func (t *Tracker) Observe(name string, latency time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.statsLocked(name)
	s.latency.Observe(latency.Seconds())
	if ok {
		s.success.Observe(1)
	} else {
		s.success.Observe(0)
	}

	// Tighten damping for handlers that are failing or slow; relax it as
	// they recover.
	if s.success.Value() < 0.5 || s.latency.Value() > slowLatency.Seconds() {
		s.damping.Up()
	} else if s.success.Value() > 0.9 {
		s.damping.Down()
	}
}

// Penalty returns the confidence multiplier for a handler, in (0,1].
// Unobserved handlers get no penalty.
func (t *Tracker) Penalty(name string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stats[name]
	if !ok || !s.success.Seeded() {
		return 1.0
	}
	return 1.0 - s.damping.Value()
}

// SuccessRate returns the moving success rate for a handler, or 1.0 when
// nothing has been observed yet.
func (t *Tracker) SuccessRate(name string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stats[name]
	if !ok || !s.success.Seeded() {
		return 1.0
	}
	return s.success.Value()
}

// AvgLatency returns the moving latency average for a handler.
func (t *Tracker) AvgLatency(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stats[name]
	if !ok {
		return 0
	}
	return time.Duration(s.latency.Value() * float64(time.Second))
}

func (t *Tracker) statsLocked(name string) *handlerStats {
	s, ok := t.stats[name]
	if !ok {
		s = &handlerStats{
			latency: NewEMA(t.alpha),
			success: NewEMA(t.alpha),
			damping: NewKnob(0, 0.9, 0.1, 0),
		}
		t.stats[name] = s
	}
	return s
}
