package matrix

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/dtm/pkg/dtm/internalerr"
)

// PruneLowFrequency removes every term whose document frequency (the
// number of rows containing it, not its summed count) is strictly
// below threshold. Rows left empty are dropped. A threshold <= 0 is a
// validation error.
func PruneLowFrequency(m *Matrix, threshold int) (*Matrix, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: document-frequency threshold must be positive, got %d",
			internalerr.ErrInvalidConfig, threshold)
	}

	df := make(map[string]int)
	for _, row := range m.counts {
		for term := range row {
			df[term]++
		}
	}

	keep := make(map[string]struct{})
	for term, n := range df {
		if n >= threshold {
			keep[term] = struct{}{}
		}
	}
	return m.retain(keep), nil
}

// RemoveTerms removes the named columns regardless of frequency. Rows
// left empty are dropped.
func RemoveTerms(m *Matrix, names []string) *Matrix {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	keep := make(map[string]struct{})
	for _, term := range m.terms {
		if _, ok := drop[term]; !ok {
			keep[term] = struct{}{}
		}
	}
	return m.retain(keep)
}

// TopKTFIDF keeps the k terms with the highest mean tf-idf across the
// rows containing them, ties broken by term text. tf is count over row
// total; idf is log(rows/df), which is zero for a term present in
// every row. A k larger than the vocabulary degrades to keeping all
// terms; k <= 0 is a validation error.
func TopKTFIDF(m *Matrix, k int) (*Matrix, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", internalerr.ErrInvalidConfig, k)
	}

	n := float64(len(m.rows))
	totals := make(map[string]float64, len(m.rows))
	for _, key := range m.rows {
		totals[key] = float64(m.rowTotal(key))
	}

	type scored struct {
		term  string
		score float64
	}
	scores := make([]scored, 0, len(m.terms))
	for _, term := range m.terms {
		df := 0
		sum := 0.0
		for key, row := range m.counts {
			c, ok := row[term]
			if !ok {
				continue
			}
			df++
			tf := float64(c) / totals[key]
			sum += tf
		}
		if df == 0 {
			continue
		}
		idf := math.Log(n / float64(df))
		mean := sum * idf / float64(df)
		scores = append(scores, scored{term: term, score: mean})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].term < scores[j].term
	})
	if k > len(scores) {
		k = len(scores)
	}

	keep := make(map[string]struct{}, k)
	for _, s := range scores[:k] {
		keep[s.term] = struct{}{}
	}
	return m.retain(keep), nil
}
