package recode

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cognicore/dtm/pkg/dtm/internalerr"
	"github.com/cognicore/dtm/pkg/dtm/token"
)

func mustCandidate(t *testing.T, phrase ...string) Candidate {
	t.Helper()
	c, err := NewCandidate(phrase...)
	if err != nil {
		t.Fatalf("candidate %v: %v", phrase, err)
	}
	return c
}

func doc(words ...string) []token.Token {
	tokens := make([]token.Token, len(words))
	for i, w := range words {
		tokens[i] = token.Token{DocID: "d1", Position: i, Surface: w}
	}
	return tokens
}

func texts(terms []Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Text
	}
	return out
}

func TestCandidateRejectsLengthOne(t *testing.T) {
	if _, err := NewCandidate("solo"); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := ParseCandidate("solo"); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecodeCompound(t *testing.T) {
	r, err := NewRecoder([]Candidate{mustCandidate(t, "new", "york", "city")}, true)
	if err != nil {
		t.Fatal(err)
	}

	tokens := doc("new", "york", "city", "is", "big")
	terms := r.Recode(Singletons(tokens, token.SurfaceSelector, token.ByDocument))

	expected := []string{"new york city", "is", "big"}
	if !reflect.DeepEqual(texts(terms), expected) {
		t.Fatalf("expected %v, got %v", expected, texts(terms))
	}

	// Spans: [0,3), [3,4), [4,5)
	spans := [][2]int{{0, 3}, {3, 4}, {4, 5}}
	for i, want := range spans {
		if terms[i].Start != want[0] || terms[i].End != want[1] {
			t.Errorf("term %d span [%d,%d), want [%d,%d)", i, terms[i].Start, terms[i].End, want[0], want[1])
		}
	}
	if !terms[0].Compound || terms[1].Compound {
		t.Error("compound flags wrong")
	}
}

func TestRecodeLongestMatchWins(t *testing.T) {
	r, err := NewRecoder([]Candidate{
		mustCandidate(t, "new", "york"),
		mustCandidate(t, "new", "york", "city"),
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	terms := r.Recode(Singletons(doc("new", "york", "city"), token.SurfaceSelector, token.ByDocument))
	if len(terms) != 1 || terms[0].Text != "new york city" {
		t.Fatalf("longest candidate must win, got %v", texts(terms))
	}
}

func TestRecodeCoverageExactPartition(t *testing.T) {
	r, err := NewRecoder([]Candidate{
		mustCandidate(t, "b", "c"),
		mustCandidate(t, "d", "e", "f"),
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	tokens := doc("a", "b", "c", "d", "e", "f", "g")
	terms := r.Recode(Singletons(tokens, token.SurfaceSelector, token.ByDocument))

	// Spans must partition [0, 7) with no gap and no overlap
	next := 0
	for _, term := range terms {
		if term.Start != next {
			t.Fatalf("gap or overlap at position %d, term starts at %d", next, term.Start)
		}
		if term.End <= term.Start {
			t.Fatalf("empty span [%d,%d)", term.Start, term.End)
		}
		next = term.End
	}
	if next != len(tokens) {
		t.Fatalf("coverage ends at %d, want %d", next, len(tokens))
	}
}

func TestRecodeEmptyCandidateSetIsIdentity(t *testing.T) {
	r, err := NewRecoder(nil, true)
	if err != nil {
		t.Fatal(err)
	}

	in := Singletons(doc("a", "b"), token.SurfaceSelector, token.ByDocument)
	out := r.Recode(in)
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("expected identity transform, got %v", texts(out))
	}
}

func TestRecodeCaseFolding(t *testing.T) {
	r, err := NewRecoder([]Candidate{mustCandidate(t, "new", "york")}, true)
	if err != nil {
		t.Fatal(err)
	}

	terms := r.Recode(Singletons(doc("New", "York"), token.SurfaceSelector, token.ByDocument))
	if len(terms) != 1 {
		t.Fatalf("fold-case match failed: %v", texts(terms))
	}
	// Compound keeps the original surface forms
	if terms[0].Text != "New York" {
		t.Errorf("compound text = %q", terms[0].Text)
	}

	strict, err := NewRecoder([]Candidate{mustCandidate(t, "new", "york")}, false)
	if err != nil {
		t.Fatal(err)
	}
	terms = strict.Recode(Singletons(doc("New", "York"), token.SurfaceSelector, token.ByDocument))
	if len(terms) != 2 {
		t.Fatalf("case-sensitive recoder must not match: %v", texts(terms))
	}
}

func TestRecodeAbsentFieldNeverMatches(t *testing.T) {
	r, err := NewRecoder([]Candidate{mustCandidate(t, "new", "york")}, true)
	if err != nil {
		t.Fatal(err)
	}

	tokens := []token.Token{
		{DocID: "d1", Position: 0, Surface: "New", Lemma: "new"},
		{DocID: "d1", Position: 1, Surface: "York"}, // lemma absent
	}
	terms := r.Recode(Singletons(tokens, token.LemmaSelector, token.ByDocument))
	if len(terms) != 2 {
		t.Fatalf("absent lemma must block the match: %v", texts(terms))
	}
}

func TestPipelineSecondPassKeepsEarlierCompounds(t *testing.T) {
	p, err := NewPipeline([]Stage{
		{Candidates: []Candidate{mustCandidate(t, "new", "york")}},
		{Candidates: []Candidate{mustCandidate(t, "york", "city")}},
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	terms := p.Run(doc("new", "york", "city"), token.SurfaceSelector, token.ByDocument)

	// Pass one consumed "new york"; pass two must not re-split it to
	// form "york city".
	expected := []string{"new york", "city"}
	if !reflect.DeepEqual(texts(terms), expected) {
		t.Fatalf("expected %v, got %v", expected, texts(terms))
	}
}

func TestPipelineSecondPassMatchesResidual(t *testing.T) {
	p, err := NewPipeline([]Stage{
		{Candidates: []Candidate{mustCandidate(t, "new", "york")}},
		{Candidates: []Candidate{mustCandidate(t, "is", "big")}},
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	terms := p.Run(doc("new", "york", "is", "big"), token.SurfaceSelector, token.ByDocument)
	expected := []string{"new york", "is big"}
	if !reflect.DeepEqual(texts(terms), expected) {
		t.Fatalf("expected %v, got %v", expected, texts(terms))
	}
}

func TestPipelineNoCrossDocumentMatch(t *testing.T) {
	p, err := NewPipeline([]Stage{
		{Candidates: []Candidate{mustCandidate(t, "york", "city")}},
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	tokens := []token.Token{
		{DocID: "d1", Position: 0, Surface: "york"},
		{DocID: "d2", Position: 0, Surface: "city"},
	}
	terms := p.Run(tokens, token.SurfaceSelector, token.ByDocument)
	if len(terms) != 2 {
		t.Fatalf("candidate matched across documents: %v", texts(terms))
	}
}

func TestPipelineCandidateLongerThanDocument(t *testing.T) {
	p, err := NewPipeline([]Stage{
		{Candidates: []Candidate{mustCandidate(t, "a", "b", "c")}},
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	terms := p.Run(doc("a", "b"), token.SurfaceSelector, token.ByDocument)
	if len(terms) != 2 {
		t.Fatalf("over-long candidate must not match: %v", texts(terms))
	}
}
