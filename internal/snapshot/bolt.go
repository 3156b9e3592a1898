package snapshot

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/types"
)

var bucketSnapshots = []byte("snapshots")

// BoltSink persists snapshots in a local bbolt database, keyed by timestamp.
type BoltSink struct {
	db *bbolt.DB
}

// NewBoltSink opens or creates the bolt snapshot database.
func NewBoltSink(cfg config.BoltSinkConfig) (*BoltSink, error) {
	db, err := bbolt.Open(cfg.Path, 0600, &bbolt.Options{Timeout: 5 * time.Second, NoSync: cfg.NoSync})
	if err != nil {
		return nil, fmt.Errorf("opening bolt snapshot db: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshots bucket: %w", err)
	}

	return &BoltSink{db: db}, nil
}

func (s *BoltSink) Name() string { return "bolt" }

func (s *BoltSink) Write(_ context.Context, snap types.Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	key := []byte(snap.Timestamp.UTC().Format(time.RFC3339Nano))
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put(key, buf.Bytes())
	})
}

// Latest returns the most recent stored snapshot, or nil if none exist.
func (s *BoltSink) Latest() (*types.Snapshot, error) {
	var snap *types.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		_, v := tx.Bucket(bucketSnapshots).Cursor().Last()
		if v == nil {
			return nil
		}
		var decoded types.Snapshot
		if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&decoded); err != nil {
			return err
		}
		snap = &decoded
		return nil
	})
	return snap, err
}

func (s *BoltSink) Ping() error {
	return s.db.View(func(tx *bbolt.Tx) error { return nil })
}

func (s *BoltSink) Close() error {
	return s.db.Close()
}
