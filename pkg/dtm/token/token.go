package token

import (
	"fmt"
	"sort"

	"github.com/cognicore/dtm/pkg/dtm/internalerr"
)

// Token is a single annotated unit produced by the upstream tagger.
// Lemma and POS may be empty, meaning the field is absent for this token.
type Token struct {
	DocID       string
	ParagraphID int
	SentenceID  int
	Position    int
	Surface     string
	Lemma       string
	POS         string
}

// Validate checks the required fields of a single token.
func (t Token) Validate() error {
	if t.DocID == "" {
		return fmt.Errorf("%w: token at position %d has no document id", internalerr.ErrInvalidInput, t.Position)
	}
	if t.Surface == "" {
		return fmt.Errorf("%w: token %s/%d has no surface form", internalerr.ErrInvalidInput, t.DocID, t.Position)
	}
	return nil
}

// ValidateStream checks every token and the per-document position order.
// Positions must be strictly increasing within a document; the first
// offending token is identified in the returned error.
func ValidateStream(tokens []Token) error {
	last := make(map[string]int)
	for i, t := range tokens {
		if err := t.Validate(); err != nil {
			return err
		}
		if prev, ok := last[t.DocID]; ok && t.Position <= prev {
			return fmt.Errorf("%w: token %d in document %s has position %d, not after %d",
				internalerr.ErrInvalidInput, i, t.DocID, t.Position, prev)
		}
		last[t.DocID] = t.Position
	}
	return nil
}

// SplitByDocument partitions a token stream by document id, preserving
// the original order within each document. Document order is the order
// of first appearance in the stream.
func SplitByDocument(tokens []Token) [][]Token {
	index := make(map[string]int)
	var docs [][]Token
	for _, t := range tokens {
		i, ok := index[t.DocID]
		if !ok {
			i = len(docs)
			index[t.DocID] = i
			docs = append(docs, nil)
		}
		docs[i] = append(docs[i], t)
	}
	return docs
}

// KeyFunc derives the grouping key that identifies a matrix row.
// The same function must be used across recoding and aggregation so
// row identities match.
type KeyFunc func(t Token) string

// ByDocument groups by document id only.
func ByDocument(t Token) string {
	return t.DocID
}

// ByParagraph groups by document and paragraph.
func ByParagraph(t Token) string {
	return fmt.Sprintf("%s/p%d", t.DocID, t.ParagraphID)
}

// BySentence groups by document and sentence.
func BySentence(t Token) string {
	return fmt.Sprintf("%s/s%d", t.DocID, t.SentenceID)
}

// Selector maps a token to the text used for candidate matching or
// counting. An empty result means the field is absent: the token can
// neither match a candidate element nor contribute a count.
type Selector func(t Token) string

// SurfaceSelector selects the surface form.
func SurfaceSelector(t Token) string {
	return t.Surface
}

// LemmaSelector selects the lemma, which may be absent.
func LemmaSelector(t Token) string {
	return t.Lemma
}

// DocIDs returns the sorted set of document ids present in the stream.
func DocIDs(tokens []Token) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, t := range tokens {
		if _, ok := seen[t.DocID]; ok {
			continue
		}
		seen[t.DocID] = struct{}{}
		ids = append(ids, t.DocID)
	}
	sort.Strings(ids)
	return ids
}
