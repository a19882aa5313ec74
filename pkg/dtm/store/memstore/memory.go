package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/dtm/pkg/dtm/export"
	"github.com/cognicore/dtm/pkg/dtm/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]export.Snapshot
	pairs     map[string]export.PairReport
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		snapshots: make(map[string]export.Snapshot),
		pairs:     make(map[string]export.PairReport),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveSnapshot stores a snapshot keyed by its ULID.
func (s *Store) SaveSnapshot(ctx context.Context, snap export.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = snap
	return nil
}

// GetSnapshot returns a snapshot by id.
func (s *Store) GetSnapshot(ctx context.Context, id string) (export.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id]
	return snap, ok, nil
}

// ListSnapshots returns summaries ordered by id.
func (s *Store) ListSnapshots(ctx context.Context) ([]store.SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]store.SnapshotInfo, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		infos = append(infos, store.SnapshotInfo{
			ID:    snap.ID,
			Rows:  len(snap.Rows),
			Terms: len(snap.Terms),
			Cells: len(snap.Cells),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// SavePairs stores a pair report keyed by snapshot id.
func (s *Store) SavePairs(ctx context.Context, snapshotID string, r export.PairReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[snapshotID] = r
	return nil
}

// GetPairs returns the pair report for a snapshot.
func (s *Store) GetPairs(ctx context.Context, snapshotID string) (export.PairReport, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.pairs[snapshotID]
	return r, ok, nil
}
