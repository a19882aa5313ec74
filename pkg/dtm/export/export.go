package export

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/dtm/pkg/dtm/matrix"
)

// Snapshot is a matrix frozen for downstream consumers: the full row
// and term orderings, every (row, term, count) triple, and the column
// sums. It carries everything a matrix-based estimator needs without
// reaching back into the matrix representation.
type Snapshot struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Rows       []string           `json:"rows"`
	Terms      []string           `json:"terms"`
	Cells      []matrix.Entry     `json:"cells"`
	ColumnSums []matrix.TermCount `json:"column_sums"`
}

// Builder stamps snapshots with monotonic ULIDs.
type Builder struct {
	entropy *ulid.MonotonicEntropy
}

// New creates a snapshot builder.
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Build freezes a matrix into an identified snapshot.
func (b *Builder) Build(m *matrix.Matrix) Snapshot {
	now := time.Now().UTC()
	return Snapshot{
		ID:         ulid.MustNew(ulid.Timestamp(now), b.entropy).String(),
		CreatedAt:  now,
		Rows:       m.Rows(),
		Terms:      m.Terms(),
		Cells:      m.Entries(),
		ColumnSums: matrix.ColumnSums(m),
	}
}

// PairReport is the enumerable form of grouped co-occurrence counts
// for graph construction.
type PairReport struct {
	Groups int                `json:"groups"`
	Pairs  []matrix.PairCount `json:"pairs"`
}

// BuildPairs freezes co-occurrence counts for presentation.
func BuildPairs(pc *matrix.PairCounts) PairReport {
	return PairReport{
		Groups: pc.Groups(),
		Pairs:  pc.Pairs(),
	}
}
