// Package resonance implements the resonance-bumping read path: memories
// gain significance when recalled.
package resonance

import (
	"go.uber.org/zap"

	"github.com/gftdcojp/echo-memory/internal/store"
	"github.com/gftdcojp/echo-memory/internal/types"
)

// Tracker wraps the store's atomic touch operation. Administrative reads
// (Get, Search, Crystallize) bypass it so scans never inflate weight.
type Tracker struct {
	store  *store.Store
	logger *zap.Logger
}

// NewTracker creates a tracker over the given store.
func NewTracker(s *store.Store, logger *zap.Logger) *Tracker {
	return &Tracker{store: s, logger: logger}
}

// Retrieve fetches an echo as a meaningful recall: resonance increases by
// one and weight scales by the retrieval factor, capped at the maximum.
// Returns the updated echo.
func (t *Tracker) Retrieve(id string) (*types.Echo, error) {
	echo, err := t.store.Touch(id)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("echo retrieved",
		zap.String("id", echo.ID),
		zap.Int("resonance", echo.Resonance),
		zap.Float64("weight", echo.Weight),
	)
	return echo, nil
}
