// Package snapshot periodically exports aggregate store statistics to
// external persistence collaborators. Snapshots never include echo content.
package snapshot

import (
	"context"

	"github.com/gftdcojp/echo-memory/internal/types"
)

// Sink is a persistence collaborator that accepts snapshots.
type Sink interface {
	// Name identifies the sink in logs, metrics, and readiness checks.
	Name() string

	// Write persists one snapshot. Implementations must honor ctx deadlines.
	Write(ctx context.Context, snap types.Snapshot) error

	// Ping probes the sink for readiness.
	Ping() error

	Close() error
}
