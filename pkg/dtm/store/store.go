package store

import (
	"context"

	"github.com/cognicore/dtm/pkg/dtm/export"
)

// Store persists matrix snapshots and co-occurrence pair counts
// between pipeline runs.
type Store interface {
	Close() error

	// Snapshots
	SaveSnapshot(ctx context.Context, s export.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (export.Snapshot, bool, error)
	ListSnapshots(ctx context.Context) ([]SnapshotInfo, error)

	// Co-occurrence pairs, keyed by the snapshot they derive from
	SavePairs(ctx context.Context, snapshotID string, r export.PairReport) error
	GetPairs(ctx context.Context, snapshotID string) (export.PairReport, bool, error)
}

// SnapshotInfo summarizes a stored snapshot.
type SnapshotInfo struct {
	ID    string
	Rows  int
	Terms int
	Cells int
}
