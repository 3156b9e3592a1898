package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/types"
)

func testSnapshot(ts time.Time) types.Snapshot {
	return types.Snapshot{
		Timestamp: ts,
		LayerCounts: map[string]int{
			"immediate": 3, "recent": 0, "deep": 1, "ancient": 0, "eternal": 2,
		},
		Total:          6,
		EmptyCount:     1,
		EmptyRatio:     1.0 / 6.0,
		Status:         types.StatusCritical,
		UniqueAuthors:  2,
		AverageWeight:  4.5,
		TotalResonance: 7,
	}
}

func newTestBoltSink(t *testing.T) *BoltSink {
	t.Helper()
	sink, err := NewBoltSink(config.BoltSinkConfig{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "snapshots.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestBoltSinkWriteAndLatest(t *testing.T) {
	sink := newTestBoltSink(t)

	if snap, err := sink.Latest(); err != nil || snap != nil {
		t.Fatalf("empty db Latest = %v, %v, want nil, nil", snap, err)
	}

	first := testSnapshot(time.Now().UTC().Add(-time.Hour))
	second := testSnapshot(time.Now().UTC())
	second.Total = 9

	if err := sink.Write(context.Background(), first); err != nil {
		t.Fatal(err)
	}
	if err := sink.Write(context.Background(), second); err != nil {
		t.Fatal(err)
	}

	got, err := sink.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Total != 9 {
		t.Fatalf("Latest = %+v, want the second snapshot", got)
	}
	if got.LayerCounts["immediate"] != 3 || got.Status != types.StatusCritical {
		t.Errorf("decoded snapshot = %+v", got)
	}
}

func TestBoltSinkPing(t *testing.T) {
	sink := newTestBoltSink(t)
	if err := sink.Ping(); err != nil {
		t.Errorf("Ping = %v", err)
	}
}
