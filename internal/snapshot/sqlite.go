package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/types"
)

// SQLiteSink persists snapshots in a memory_snapshots table, one row per
// cycle.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens or creates the SQLite snapshot database.
func NewSQLiteSink(cfg config.SQLiteSinkConfig) (*SQLiteSink, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating snapshot db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite snapshot db: %w", err)
	}

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating snapshot schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS memory_snapshots (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at      TEXT NOT NULL,
		total           INTEGER NOT NULL,
		empty_count     INTEGER NOT NULL,
		empty_ratio     REAL NOT NULL,
		status          TEXT NOT NULL,
		tier_counts     TEXT NOT NULL,
		unique_authors  INTEGER NOT NULL,
		average_weight  REAL NOT NULL,
		total_resonance INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON memory_snapshots(created_at);
	`)
	return err
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Write(ctx context.Context, snap types.Snapshot) error {
	counts, err := json.Marshal(snap.LayerCounts)
	if err != nil {
		return fmt.Errorf("encoding tier counts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO memory_snapshots
		(created_at, total, empty_count, empty_ratio, status, tier_counts,
		 unique_authors, average_weight, total_resonance)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Timestamp.UTC().Format(time.RFC3339Nano),
		snap.Total,
		snap.EmptyCount,
		snap.EmptyRatio,
		string(snap.Status),
		string(counts),
		snap.UniqueAuthors,
		snap.AverageWeight,
		snap.TotalResonance,
	)
	return err
}

// Latest returns the most recent stored snapshot, or nil if none exist.
func (s *SQLiteSink) Latest() (*types.Snapshot, error) {
	row := s.db.QueryRow(`
	SELECT created_at, total, empty_count, empty_ratio, status, tier_counts,
	       unique_authors, average_weight, total_resonance
	FROM memory_snapshots ORDER BY id DESC LIMIT 1`)

	var (
		snap     types.Snapshot
		created  string
		status   string
		countsJS string
	)
	err := row.Scan(&created, &snap.Total, &snap.EmptyCount, &snap.EmptyRatio,
		&status, &countsJS, &snap.UniqueAuthors, &snap.AverageWeight, &snap.TotalResonance)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap.Timestamp, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot timestamp: %w", err)
	}
	snap.Status = types.HealthStatus(status)
	if err := json.Unmarshal([]byte(countsJS), &snap.LayerCounts); err != nil {
		return nil, fmt.Errorf("decoding tier counts: %w", err)
	}
	return &snap, nil
}

func (s *SQLiteSink) Ping() error {
	return s.db.Ping()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
