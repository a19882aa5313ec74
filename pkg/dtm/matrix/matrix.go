package matrix

import (
	"sort"

	"github.com/cognicore/dtm/pkg/dtm/recode"
	"github.com/cognicore/dtm/pkg/dtm/token"
)

// Matrix is a sparse document-term count matrix. Stored counts are
// always >= 1; absent cells are zero. Row and term orderings are
// lexicographic, so content depends only on the multiset of
// increments, never on traversal order. A Matrix is immutable once
// built; filters return new values.
type Matrix struct {
	counts map[string]map[string]int
	rows   []string
	terms  []string
}

// Entry is one (row, term, count) triple of the matrix.
type Entry struct {
	Row   string
	Term  string
	Count int
}

// Builder accumulates (key, term) increments into a matrix. Builders
// are not safe for concurrent use; parallel aggregation uses one
// builder per worker, merged at the end.
type Builder struct {
	counts map[string]map[string]int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{counts: make(map[string]map[string]int)}
}

// Add increments the count for (key, term) by one. An empty term is
// absent and contributes nothing; rows never become stored empty.
func (b *Builder) Add(key, term string) {
	if key == "" || term == "" {
		return
	}
	row := b.counts[key]
	if row == nil {
		row = make(map[string]int)
		b.counts[key] = row
	}
	row[term]++
}

// AddTerms aggregates a recoded term stream using each term's grouping
// key. Absent-text terms are skipped.
func (b *Builder) AddTerms(terms []recode.Term) {
	for _, t := range terms {
		b.Add(t.Key, t.Text)
	}
}

// AddTokens aggregates a raw token stream directly, bypassing
// recoding, using the given key and field selector.
func (b *Builder) AddTokens(tokens []token.Token, key token.KeyFunc, sel token.Selector) {
	for _, t := range tokens {
		b.Add(key(t), sel(t))
	}
}

// Merge folds another builder's partial counts into this one.
func (b *Builder) Merge(other *Builder) {
	for key, row := range other.counts {
		for term, n := range row {
			dst := b.counts[key]
			if dst == nil {
				dst = make(map[string]int)
				b.counts[key] = dst
			}
			dst[term] += n
		}
	}
}

// Build freezes the accumulated counts into a Matrix. The builder may
// continue to be used; the matrix owns an independent copy.
func (b *Builder) Build() *Matrix {
	counts := make(map[string]map[string]int, len(b.counts))
	for key, row := range b.counts {
		if len(row) == 0 {
			continue
		}
		dst := make(map[string]int, len(row))
		for term, n := range row {
			dst[term] = n
		}
		counts[key] = dst
	}
	return fromCounts(counts)
}

// fromCounts wraps a count map, taking ownership, and derives the
// sorted row and term orderings.
func fromCounts(counts map[string]map[string]int) *Matrix {
	rows := make([]string, 0, len(counts))
	termSet := make(map[string]struct{})
	for key, row := range counts {
		rows = append(rows, key)
		for term := range row {
			termSet[term] = struct{}{}
		}
	}
	sort.Strings(rows)

	terms := make([]string, 0, len(termSet))
	for term := range termSet {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	return &Matrix{counts: counts, rows: rows, terms: terms}
}

// Rows returns the ordered row-key list.
func (m *Matrix) Rows() []string {
	return m.rows
}

// Terms returns the ordered column-term list.
func (m *Matrix) Terms() []string {
	return m.terms
}

// Count returns the stored count for (row, term), zero when absent.
func (m *Matrix) Count(row, term string) int {
	return m.counts[row][term]
}

// Row returns a copy of one row's term counts, nil when the row is
// absent.
func (m *Matrix) Row(key string) map[string]int {
	src, ok := m.counts[key]
	if !ok {
		return nil
	}
	row := make(map[string]int, len(src))
	for term, n := range src {
		row[term] = n
	}
	return row
}

// Entries enumerates all stored cells ordered by row then term, the
// form consumed by estimators and stores.
func (m *Matrix) Entries() []Entry {
	var out []Entry
	for _, row := range m.rows {
		terms := make([]string, 0, len(m.counts[row]))
		for term := range m.counts[row] {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			out = append(out, Entry{Row: row, Term: term, Count: m.counts[row][term]})
		}
	}
	return out
}

// DocFrequency returns the number of rows in which the term appears.
func (m *Matrix) DocFrequency(term string) int {
	df := 0
	for _, row := range m.counts {
		if row[term] > 0 {
			df++
		}
	}
	return df
}

// rowTotal is the sum of counts in one row.
func (m *Matrix) rowTotal(key string) int {
	total := 0
	for _, n := range m.counts[key] {
		total += n
	}
	return total
}

// retain builds a new matrix keeping only the listed terms; rows left
// empty are dropped.
func (m *Matrix) retain(keep map[string]struct{}) *Matrix {
	counts := make(map[string]map[string]int)
	for key, row := range m.counts {
		var dst map[string]int
		for term, n := range row {
			if _, ok := keep[term]; !ok {
				continue
			}
			if dst == nil {
				dst = make(map[string]int)
			}
			dst[term] = n
		}
		if dst != nil {
			counts[key] = dst
		}
	}
	return fromCounts(counts)
}
