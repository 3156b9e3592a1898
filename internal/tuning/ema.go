// Package tuning tracks handler performance with exponential moving
// averages and adjusts bounded knobs from the observations.
package tuning

// EMA is an exponential moving average. The first observation seeds the
// average directly.
type EMA struct {
	alpha  float64
	value  float64
	seeded bool
}

func NewEMA(alpha float64) *EMA {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.2
	}
	return &EMA{alpha: alpha}
}

func (e *EMA) Observe(v float64) {
	if !e.seeded {
		e.value = v
		e.seeded = true
		return
	}
	e.value = e.alpha*v + (1-e.alpha)*e.value
}

func (e *EMA) Value() float64 { return e.value }

func (e *EMA) Seeded() bool { return e.seeded }

// Knob is a bounded tunable: nudging it moves the value one step, clamped
// to [Min, Max].
type Knob struct {
	Min, Max, Step float64
	value          float64
}

func NewKnob(min, max, step, initial float64) *Knob {
	k := &Knob{Min: min, Max: max, Step: step}
	k.value = clamp(initial, min, max)
	return k
}

func (k *Knob) Up() float64 {
	k.value = clamp(k.value+k.Step, k.Min, k.Max)
	return k.value
}

func (k *Knob) Down() float64 {
	k.value = clamp(k.value-k.Step, k.Min, k.Max)
	return k.value
}

func (k *Knob) Value() float64 { return k.value }

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
