// Package dispatch routes inbound signals to the handler most confident
// about them, weighting confidence with the signal's energy.
package dispatch

import "time"

// Signal is one inbound stimulus from a collaborating surface (chat
// command, mention, admin action).
type Signal struct {
	// Source identifies the surface the signal arrived on.
	Source string
	// Intent is the normalized verb of the signal ("remember", "recall", ...).
	Intent string
	// Context carries surface-specific attributes ("command", "mentions_bot",
	// "from_admin").
	Context   map[string]bool
	Content   string
	Author    string
	Timestamp time.Time
}

// Energy scores how strongly the signal demands attention. Explicit
// commands, direct mentions, and admin actions amplify the base energy.
func (s *Signal) Energy() float64 {
	energy := 1.0
	if s.Context["command"] {
		energy *= 2.0
	}
	if s.Context["mentions_bot"] {
		energy *= 1.5
	}
	if s.Context["from_admin"] {
		energy *= 3.0
	}
	return energy
}
