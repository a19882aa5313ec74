package matrix

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/cognicore/dtm/pkg/dtm/token"
)

func buildFrom(pairs [][2]string) *Matrix {
	b := NewBuilder()
	for _, p := range pairs {
		b.Add(p[0], p[1])
	}
	return b.Build()
}

func TestBuilderCounts(t *testing.T) {
	m := buildFrom([][2]string{
		{"d1", "a"}, {"d1", "a"}, {"d1", "b"},
		{"d2", "b"},
	})

	if got := m.Count("d1", "a"); got != 2 {
		t.Errorf("d1/a = %d, want 2", got)
	}
	if got := m.Count("d2", "b"); got != 1 {
		t.Errorf("d2/b = %d, want 1", got)
	}
	if got := m.Count("d2", "a"); got != 0 {
		t.Errorf("absent cell = %d, want 0", got)
	}
}

func TestBuilderSkipsAbsentTerms(t *testing.T) {
	b := NewBuilder()
	b.Add("d1", "")
	b.Add("", "a")
	m := b.Build()

	if len(m.Rows()) != 0 || len(m.Terms()) != 0 {
		t.Fatalf("absent increments must not create rows: %v %v", m.Rows(), m.Terms())
	}
}

func TestBuilderAddTokensSkipsAbsentLemma(t *testing.T) {
	tokens := []token.Token{
		{DocID: "d1", Position: 0, Surface: "Running", Lemma: "run"},
		{DocID: "d1", Position: 1, Surface: "fast"}, // lemma absent
	}

	b := NewBuilder()
	b.AddTokens(tokens, token.ByDocument, token.LemmaSelector)
	m := b.Build()

	if !reflect.DeepEqual(m.Terms(), []string{"run"}) {
		t.Fatalf("terms = %v, want [run]", m.Terms())
	}
}

func TestMatrixOrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"d1", "a"}, {"d1", "b"}, {"d2", "b"}, {"d2", "c"},
		{"d3", "a"}, {"d1", "a"}, {"d3", "c"}, {"d2", "b"},
	}

	reference := buildFrom(pairs).Entries()

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([][2]string, len(pairs))
		copy(shuffled, pairs)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		if got := buildFrom(shuffled).Entries(); !reflect.DeepEqual(got, reference) {
			t.Fatalf("trial %d: shuffled aggregation differs:\n%v\n%v", trial, got, reference)
		}
	}
}

func TestMatrixOrderings(t *testing.T) {
	m := buildFrom([][2]string{
		{"zz", "beta"}, {"aa", "alpha"}, {"mm", "gamma"},
	})

	if !reflect.DeepEqual(m.Rows(), []string{"aa", "mm", "zz"}) {
		t.Errorf("rows = %v", m.Rows())
	}
	if !reflect.DeepEqual(m.Terms(), []string{"alpha", "beta", "gamma"}) {
		t.Errorf("terms = %v", m.Terms())
	}
}

func TestMergePartials(t *testing.T) {
	b1 := NewBuilder()
	b1.Add("d1", "a")
	b1.Add("d1", "b")

	b2 := NewBuilder()
	b2.Add("d1", "a")
	b2.Add("d2", "c")

	merged := NewBuilder()
	merged.Merge(b1)
	merged.Merge(b2)
	m := merged.Build()

	direct := buildFrom([][2]string{
		{"d1", "a"}, {"d1", "b"}, {"d1", "a"}, {"d2", "c"},
	})
	if !reflect.DeepEqual(m.Entries(), direct.Entries()) {
		t.Fatalf("merged matrix differs from direct aggregation:\n%v\n%v", m.Entries(), direct.Entries())
	}
}

func TestEntriesEnumeration(t *testing.T) {
	m := buildFrom([][2]string{
		{"d2", "b"}, {"d1", "b"}, {"d1", "a"}, {"d1", "a"},
	})

	expected := []Entry{
		{Row: "d1", Term: "a", Count: 2},
		{Row: "d1", Term: "b", Count: 1},
		{Row: "d2", Term: "b", Count: 1},
	}
	if got := m.Entries(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("entries = %v", got)
	}
}

func TestDocFrequency(t *testing.T) {
	m := buildFrom([][2]string{
		{"d1", "a"}, {"d1", "a"}, {"d2", "a"}, {"d2", "b"},
	})

	// df counts rows, not occurrences
	if got := m.DocFrequency("a"); got != 2 {
		t.Errorf("df(a) = %d, want 2", got)
	}
	if got := m.DocFrequency("b"); got != 1 {
		t.Errorf("df(b) = %d, want 1", got)
	}
	if got := m.DocFrequency("zz"); got != 0 {
		t.Errorf("df(zz) = %d, want 0", got)
	}
}

func TestRowCopyIsolation(t *testing.T) {
	m := buildFrom([][2]string{{"d1", "a"}})

	row := m.Row("d1")
	row["a"] = 99
	if m.Count("d1", "a") != 1 {
		t.Fatal("Row must return a copy")
	}
	if m.Row("missing") != nil {
		t.Fatal("absent row must be nil")
	}
}
