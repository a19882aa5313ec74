package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/dtm/pkg/dtm/export"
	"github.com/cognicore/dtm/pkg/dtm/matrix"
	"github.com/cognicore/dtm/pkg/dtm/store"
)

// sqliteStore implements store.Store using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and the schema
// initialized.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cells (
	snapshot_id TEXT NOT NULL,
	row_key TEXT NOT NULL,
	term TEXT NOT NULL,
	count INTEGER NOT NULL,
	UNIQUE(snapshot_id, row_key, term),
	FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS pair_counts (
	snapshot_id TEXT NOT NULL,
	term_a TEXT NOT NULL,
	term_b TEXT NOT NULL,
	count INTEGER NOT NULL,
	UNIQUE(snapshot_id, term_a, term_b),
	FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS pair_groups (
	snapshot_id TEXT PRIMARY KEY,
	groups INTEGER NOT NULL,
	FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_cells_snapshot ON cells(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_pairs_snapshot ON pair_counts(snapshot_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveSnapshot writes the snapshot and all its cells in one
// transaction; the row/term orderings and column sums are derived on
// load, so only cells are stored.
func (s *sqliteStore) SaveSnapshot(ctx context.Context, snap export.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (id, created_at) VALUES (?, ?)`,
		snap.ID, snap.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cells WHERE snapshot_id = ?`, snap.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cells (snapshot_id, row_key, term, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range snap.Cells {
		if _, err := stmt.ExecContext(ctx, snap.ID, c.Row, c.Term, c.Count); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSnapshot reloads a snapshot, rebuilding the orderings and column
// sums from the stored cells.
func (s *sqliteStore) GetSnapshot(ctx context.Context, id string) (export.Snapshot, bool, error) {
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM snapshots WHERE id = ?`, id).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return export.Snapshot{}, false, nil
	}
	if err != nil {
		return export.Snapshot{}, false, err
	}

	snap := export.Snapshot{ID: id}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return export.Snapshot{}, false, fmt.Errorf("snapshot %s: bad created_at %q: %w", id, createdAt, err)
	}
	snap.CreatedAt = created

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_key, term, count FROM cells WHERE snapshot_id = ? ORDER BY row_key, term`, id)
	if err != nil {
		return export.Snapshot{}, false, err
	}
	defer rows.Close()

	rowSet := make(map[string]struct{})
	termSet := make(map[string]struct{})
	sums := make(map[string]int)
	for rows.Next() {
		var c matrix.Entry
		if err := rows.Scan(&c.Row, &c.Term, &c.Count); err != nil {
			return export.Snapshot{}, false, err
		}
		snap.Cells = append(snap.Cells, c)
		rowSet[c.Row] = struct{}{}
		termSet[c.Term] = struct{}{}
		sums[c.Term] += c.Count
	}
	if err := rows.Err(); err != nil {
		return export.Snapshot{}, false, err
	}

	snap.Rows = sortedKeys(rowSet)
	snap.Terms = sortedKeys(termSet)
	for term, n := range sums {
		snap.ColumnSums = append(snap.ColumnSums, matrix.TermCount{Term: term, Count: n})
	}
	sort.Slice(snap.ColumnSums, func(i, j int) bool {
		a, b := snap.ColumnSums[i], snap.ColumnSums[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Term < b.Term
	})

	return snap, true, nil
}

// ListSnapshots returns summaries ordered by id.
func (s *sqliteStore) ListSnapshots(ctx context.Context) ([]store.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT s.id,
       COUNT(DISTINCT c.row_key),
       COUNT(DISTINCT c.term),
       COUNT(c.count)
FROM snapshots s
LEFT JOIN cells c ON c.snapshot_id = s.id
GROUP BY s.id
ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []store.SnapshotInfo
	for rows.Next() {
		var info store.SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Rows, &info.Terms, &info.Cells); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// SavePairs writes a co-occurrence report in one transaction.
func (s *sqliteStore) SavePairs(ctx context.Context, snapshotID string, r export.PairReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO pair_groups (snapshot_id, groups) VALUES (?, ?)`,
		snapshotID, r.Groups); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pair_counts WHERE snapshot_id = ?`, snapshotID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pair_counts (snapshot_id, term_a, term_b, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range r.Pairs {
		if _, err := stmt.ExecContext(ctx, snapshotID, p.Pair.A, p.Pair.B, p.Count); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetPairs reloads a co-occurrence report.
func (s *sqliteStore) GetPairs(ctx context.Context, snapshotID string) (export.PairReport, bool, error) {
	var r export.PairReport
	err := s.db.QueryRowContext(ctx,
		`SELECT groups FROM pair_groups WHERE snapshot_id = ?`, snapshotID).Scan(&r.Groups)
	if err == sql.ErrNoRows {
		return export.PairReport{}, false, nil
	}
	if err != nil {
		return export.PairReport{}, false, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT term_a, term_b, count FROM pair_counts WHERE snapshot_id = ?
		 ORDER BY count DESC, term_a, term_b`, snapshotID)
	if err != nil {
		return export.PairReport{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var p matrix.PairCount
		if err := rows.Scan(&p.Pair.A, &p.Pair.B, &p.Count); err != nil {
			return export.PairReport{}, false, err
		}
		r.Pairs = append(r.Pairs, p)
	}
	return r, true, rows.Err()
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
