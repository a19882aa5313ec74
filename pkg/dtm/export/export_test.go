package export

import (
	"reflect"
	"testing"

	"github.com/cognicore/dtm/pkg/dtm/matrix"
)

func TestBuildSnapshot(t *testing.T) {
	b := matrix.NewBuilder()
	b.Add("d1", "a")
	b.Add("d1", "a")
	b.Add("d1", "b")
	b.Add("d2", "b")
	m := b.Build()

	builder := New()
	snap := builder.Build(m)

	if snap.ID == "" {
		t.Fatal("snapshot must carry an id")
	}
	if snap.CreatedAt.IsZero() {
		t.Fatal("snapshot must carry a creation time")
	}
	if !reflect.DeepEqual(snap.Rows, []string{"d1", "d2"}) {
		t.Errorf("rows = %v", snap.Rows)
	}
	if !reflect.DeepEqual(snap.Terms, []string{"a", "b"}) {
		t.Errorf("terms = %v", snap.Terms)
	}

	expectedCells := []matrix.Entry{
		{Row: "d1", Term: "a", Count: 2},
		{Row: "d1", Term: "b", Count: 1},
		{Row: "d2", Term: "b", Count: 1},
	}
	if !reflect.DeepEqual(snap.Cells, expectedCells) {
		t.Errorf("cells = %v", snap.Cells)
	}

	expectedSums := []matrix.TermCount{
		{Term: "a", Count: 2},
		{Term: "b", Count: 2},
	}
	if !reflect.DeepEqual(snap.ColumnSums, expectedSums) {
		t.Errorf("column sums = %v", snap.ColumnSums)
	}
}

func TestSnapshotIDsMonotonic(t *testing.T) {
	m := matrix.NewBuilder().Build()

	builder := New()
	prev := builder.Build(m).ID
	for i := 0; i < 5; i++ {
		id := builder.Build(m).ID
		if id <= prev {
			t.Fatalf("ids must be strictly increasing: %s then %s", prev, id)
		}
		prev = id
	}
}

func TestBuildPairs(t *testing.T) {
	b := matrix.NewBuilder()
	b.Add("d1", "a")
	b.Add("d1", "b")
	b.Add("d2", "a")
	b.Add("d2", "b")
	m := b.Build()

	report := BuildPairs(matrix.Cooccur(m, nil))
	if report.Groups != 2 {
		t.Errorf("groups = %d", report.Groups)
	}
	if len(report.Pairs) != 1 || report.Pairs[0].Count != 2 {
		t.Errorf("pairs = %v", report.Pairs)
	}
}
