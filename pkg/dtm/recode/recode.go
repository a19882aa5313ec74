package recode

import (
	"fmt"
	"strings"

	"github.com/cognicore/dtm/pkg/dtm/internalerr"
	"github.com/cognicore/dtm/pkg/dtm/token"
)

// Separator joins the surface elements of a compound term.
const Separator = " "

// Candidate is an accepted multi-word expression: an ordered sequence
// of surface forms of length >= 2.
type Candidate struct {
	Phrase []string
	Length int
}

// NewCandidate builds a candidate from its phrase elements.
func NewCandidate(phrase ...string) (Candidate, error) {
	if len(phrase) < 2 {
		return Candidate{}, fmt.Errorf("%w: candidate %q has length %d, need >= 2",
			internalerr.ErrInvalidInput, strings.Join(phrase, Separator), len(phrase))
	}
	for i, el := range phrase {
		if el == "" {
			return Candidate{}, fmt.Errorf("%w: candidate %q has empty element at %d",
				internalerr.ErrInvalidInput, strings.Join(phrase, Separator), i)
		}
	}
	return Candidate{Phrase: phrase, Length: len(phrase)}, nil
}

// ParseCandidate splits a whitespace-separated phrase into a candidate.
func ParseCandidate(phrase string) (Candidate, error) {
	return NewCandidate(strings.Fields(phrase)...)
}

// Term is one element of a recoded stream: either a single token's
// selected field, unchanged, or a compound synthesized from a run of
// tokens. Start/End is the half-open span of original positions the
// term consumed.
type Term struct {
	Text     string
	DocID    string
	Key      string
	Start    int
	End      int
	Compound bool
}

// Span returns the number of original positions the term covers.
func (t Term) Span() int {
	return t.End - t.Start
}

// Recoder rewrites a term stream by replacing longest-matching runs
// with compound terms.
type Recoder struct {
	dict     map[string]Candidate // folded phrase text -> candidate
	maxLen   int
	foldCase bool
}

// NewRecoder creates a recoder over the given candidate set.
// Candidates of length < 2 are rejected. When foldCase is set, phrase
// elements match token text case-insensitively.
func NewRecoder(candidates []Candidate, foldCase bool) (*Recoder, error) {
	dict := make(map[string]Candidate, len(candidates))
	maxLen := 1
	for _, c := range candidates {
		if c.Length < 2 || c.Length != len(c.Phrase) {
			return nil, fmt.Errorf("%w: candidate %q has invalid length %d",
				internalerr.ErrInvalidInput, strings.Join(c.Phrase, Separator), c.Length)
		}
		key := strings.Join(c.Phrase, Separator)
		if foldCase {
			key = strings.ToLower(key)
		}
		dict[key] = c
		if c.Length > maxLen {
			maxLen = c.Length
		}
	}
	return &Recoder{dict: dict, maxLen: maxLen, foldCase: foldCase}, nil
}

// Singletons converts one document's tokens into the initial term
// stream, one term per token, using the selector's field as the text.
// An absent field yields a term with empty text; it still covers its
// position so that span coverage stays complete.
func Singletons(tokens []token.Token, sel token.Selector, key token.KeyFunc) []Term {
	terms := make([]Term, len(tokens))
	for i, t := range tokens {
		terms[i] = Term{
			Text:  sel(t),
			DocID: t.DocID,
			Key:   key(t),
			Start: t.Position,
			End:   t.Position + 1,
		}
	}
	return terms
}

// Recode applies greedy longest-match substitution over a single
// document's term stream. At each unconsumed index it tries the longest
// candidate length first; the dictionary holds at most one candidate
// per exact phrase text, so equal-length overlaps are never ambiguous.
// On a match of L terms it emits one compound spanning all of their
// positions and advances by L; otherwise it emits the term unchanged.
// Compounds produced by an earlier pass contain the separator and so
// are never re-matched element-wise by a later pass.
func (r *Recoder) Recode(terms []Term) []Term {
	if len(r.dict) == 0 {
		return terms
	}

	result := make([]Term, 0, len(terms))
	i := 0
	for i < len(terms) {
		matchLen := 0

		maxRun := r.maxLen
		if remaining := len(terms) - i; maxRun > remaining {
			maxRun = remaining
		}
		for n := maxRun; n >= 2; n-- {
			if key, ok := r.joinRun(terms[i : i+n]); ok {
				if _, hit := r.dict[key]; hit {
					matchLen = n
					break
				}
			}
		}

		if matchLen > 0 {
			run := terms[i : i+matchLen]
			texts := make([]string, matchLen)
			for j, t := range run {
				texts[j] = t.Text
			}
			result = append(result, Term{
				Text:     strings.Join(texts, Separator),
				DocID:    run[0].DocID,
				Key:      run[0].Key,
				Start:    run[0].Start,
				End:      run[matchLen-1].End,
				Compound: true,
			})
			i += matchLen
		} else {
			result = append(result, terms[i])
			i++
		}
	}
	return result
}

// joinRun builds the dictionary key for a run of terms. A run
// containing an absent-text term, or a term that is itself a compound,
// cannot match a candidate element-wise.
func (r *Recoder) joinRun(run []Term) (string, bool) {
	parts := make([]string, len(run))
	for i, t := range run {
		if t.Text == "" || strings.Contains(t.Text, Separator) {
			return "", false
		}
		parts[i] = t.Text
	}
	key := strings.Join(parts, Separator)
	if r.foldCase {
		key = strings.ToLower(key)
	}
	return key, true
}

// Stage is one recoding pass with its own candidate set.
type Stage struct {
	Candidates []Candidate
}

// Pipeline is an ordered list of recoding passes. Each pass applies
// longest-match independently over the previous pass's output.
type Pipeline struct {
	recoders []*Recoder
}

// NewPipeline builds a multi-pass recoding pipeline.
func NewPipeline(stages []Stage, foldCase bool) (*Pipeline, error) {
	recoders := make([]*Recoder, len(stages))
	for i, s := range stages {
		r, err := NewRecoder(s.Candidates, foldCase)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		recoders[i] = r
	}
	return &Pipeline{recoders: recoders}, nil
}

// Run recodes a full token stream, document by document, through every
// stage in order. Candidates never match across document boundaries.
func (p *Pipeline) Run(tokens []token.Token, sel token.Selector, key token.KeyFunc) []Term {
	var out []Term
	for _, doc := range token.SplitByDocument(tokens) {
		terms := Singletons(doc, sel, key)
		for _, r := range p.recoders {
			terms = r.Recode(terms)
		}
		out = append(out, terms...)
	}
	return out
}
