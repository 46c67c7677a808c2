package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/burrow/pkg/types"
)

var (
	// Bucket names
	bucketRuns = []byte("runs")
	bucketMeta = []byte("meta")

	keyLatestRun = []byte("latest_run")
)

// Store persists bootstrap run records in a BoltDB file under the data
// dir. The bbolt file lock doubles as the single-runner guard: a second
// concurrent bootstrap on the same host fails to open the store instead of
// racing the first.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the run-record store.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "burrow.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database (another bootstrap running?): %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRuns, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun persists a finished run and marks it latest.
func (s *Store) RecordRun(run *types.RunRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketRuns).Put([]byte(run.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyLatestRun, []byte(run.ID))
	})
}

// LatestRun returns the most recently recorded run, or nil when no run has
// been recorded yet.
func (s *Store) LatestRun() (*types.RunRecord, error) {
	var run *types.RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketMeta).Get(keyLatestRun)
		if id == nil {
			return nil
		}
		data := tx.Bucket(bucketRuns).Get(id)
		if data == nil {
			return fmt.Errorf("latest run %s not found", id)
		}
		run = &types.RunRecord{}
		return json.Unmarshal(data, run)
	})
	return run, err
}

// GetRun returns one run by ID.
func (s *Store) GetRun(id string) (*types.RunRecord, error) {
	var run types.RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketRuns).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("run not found: %s", id)
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns all recorded runs, newest first.
func (s *Store) ListRuns() ([]*types.RunRecord, error) {
	var runs []*types.RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			var run types.RunRecord
			if err := json.Unmarshal(v, &run); err != nil {
				return err
			}
			runs = append(runs, &run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Keys are UUIDs, so order by start time instead of key order.
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}
