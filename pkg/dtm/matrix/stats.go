package matrix

import (
	"math"
	"sort"
)

// TermCount is one term with its total occurrence count.
type TermCount struct {
	Term  string
	Count int
}

// ColumnSums totals each term's occurrence count across all rows,
// ordered by descending count, ties by term text.
func ColumnSums(m *Matrix) []TermCount {
	sums := make(map[string]int, len(m.terms))
	for _, row := range m.counts {
		for term, n := range row {
			sums[term] += n
		}
	}

	out := make([]TermCount, 0, len(sums))
	for term, n := range sums {
		out = append(out, TermCount{Term: term, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// Correlation holds pairwise Pearson coefficients between term
// columns. Diagonal and zero-variance entries are NaN: they are
// not-a-value, never 1.0 or 0.0.
type Correlation struct {
	terms []string
	index map[string]int
	vals  [][]float64
}

// Terms returns the ordered term list of the correlation matrix.
func (c *Correlation) Terms() []string {
	return c.terms
}

// At returns the coefficient for a term pair. ok is false for the
// diagonal, for unknown terms, and for pairs involving a constant
// column.
func (c *Correlation) At(a, b string) (float64, bool) {
	i, okA := c.index[a]
	j, okB := c.index[b]
	if !okA || !okB {
		return math.NaN(), false
	}
	v := c.vals[i][j]
	if math.IsNaN(v) {
		return v, false
	}
	return v, true
}

// Correlate computes the pairwise linear correlation between every two
// term columns, each treated as a vector over the full row space with
// zeros where the term is absent.
func Correlate(m *Matrix) *Correlation {
	nTerms := len(m.terms)
	nRows := len(m.rows)

	index := make(map[string]int, nTerms)
	cols := make([][]float64, nTerms)
	for i, term := range m.terms {
		index[term] = i
		col := make([]float64, nRows)
		for j, key := range m.rows {
			col[j] = float64(m.counts[key][term])
		}
		cols[i] = col
	}

	vals := make([][]float64, nTerms)
	for i := range vals {
		vals[i] = make([]float64, nTerms)
		vals[i][i] = math.NaN()
	}
	for i := 0; i < nTerms; i++ {
		for j := i + 1; j < nTerms; j++ {
			r := pearson(cols[i], cols[j])
			vals[i][j] = r
			vals[j][i] = r
		}
	}
	return &Correlation{terms: m.terms, index: index, vals: vals}
}

// pearson returns NaN when either vector has zero variance.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return math.NaN()
	}
	var sx, sy, sxx, syy, sxy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		syy += y[i] * y[i]
		sxy += x[i] * y[i]
	}
	varX := n*sxx - sx*sx
	varY := n*syy - sy*sy
	if varX <= 0 || varY <= 0 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / math.Sqrt(varX*varY)
}

// TermPair is an unordered pair of terms in canonical order (A < B).
type TermPair struct {
	A, B string
}

// newPair canonicalizes term order.
func newPair(a, b string) TermPair {
	if a > b {
		a, b = b, a
	}
	return TermPair{A: a, B: b}
}

// PairCounts holds sparse co-occurrence counts per term pair. A pair
// is counted once per group regardless of how often both terms occur
// inside it.
type PairCounts struct {
	counts map[TermPair]int
	groups int
}

// Count returns the co-occurrence count for a pair in either order.
func (p *PairCounts) Count(a, b string) int {
	return p.counts[newPair(a, b)]
}

// Groups returns the number of distinct groups processed.
func (p *PairCounts) Groups() int {
	return p.groups
}

// Pairs enumerates all counted pairs ordered by descending count, ties
// by pair text, ready for building a co-occurrence graph.
func (p *PairCounts) Pairs() []PairCount {
	out := make([]PairCount, 0, len(p.counts))
	for pair, n := range p.counts {
		out = append(out, PairCount{Pair: pair, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Pair.A != out[j].Pair.A {
			return out[i].Pair.A < out[j].Pair.A
		}
		return out[i].Pair.B < out[j].Pair.B
	})
	return out
}

// PairCount is one term pair with its group co-occurrence count.
type PairCount struct {
	Pair  TermPair
	Count int
}

// Cooccur counts, for every pair of distinct terms, the number of
// groups in which both appear. groupOf maps a row key to its secondary
// group; passing nil treats each row as its own group.
func Cooccur(m *Matrix, groupOf func(rowKey string) string) *PairCounts {
	if groupOf == nil {
		groupOf = func(key string) string { return key }
	}

	groupTerms := make(map[string]map[string]struct{})
	for key, row := range m.counts {
		g := groupOf(key)
		set := groupTerms[g]
		if set == nil {
			set = make(map[string]struct{})
			groupTerms[g] = set
		}
		for term := range row {
			set[term] = struct{}{}
		}
	}

	pc := &PairCounts{counts: make(map[TermPair]int), groups: len(groupTerms)}
	for _, set := range groupTerms {
		terms := make([]string, 0, len(set))
		for term := range set {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for i := 0; i < len(terms); i++ {
			for j := i + 1; j < len(terms); j++ {
				pc.counts[TermPair{A: terms[i], B: terms[j]}]++
			}
		}
	}
	return pc
}
