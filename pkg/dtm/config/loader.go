package config

import (
	"fmt"

	"github.com/cognicore/dtm/pkg/dtm/recode"
	"github.com/cognicore/dtm/pkg/dtm/token"
)

// Components holds the pipeline pieces built from a configuration.
type Components struct {
	Recoder  *recode.Pipeline
	Selector token.Selector
	Key      token.KeyFunc
	Filters  Filters
}

// Build constructs the runtime components described by the
// configuration. Candidate phrases of fewer than two words are
// rejected here, at the boundary.
func (p *Pipeline) Build() (*Components, error) {
	stages := make([]recode.Stage, len(p.Stages))
	for i, s := range p.Stages {
		candidates := make([]recode.Candidate, len(s.Candidates))
		for j, phrase := range s.Candidates {
			c, err := recode.ParseCandidate(phrase)
			if err != nil {
				return nil, fmt.Errorf("stage %d: %w", i, err)
			}
			candidates[j] = c
		}
		stages[i] = recode.Stage{Candidates: candidates}
	}

	rec, err := recode.NewPipeline(stages, p.Fold())
	if err != nil {
		return nil, err
	}

	comp := &Components{Recoder: rec, Filters: p.Filters}

	switch p.TermField {
	case "lemma":
		comp.Selector = token.LemmaSelector
	default:
		comp.Selector = token.SurfaceSelector
	}

	switch p.GroupBy {
	case "paragraph":
		comp.Key = token.ByParagraph
	case "sentence":
		comp.Key = token.BySentence
	default:
		comp.Key = token.ByDocument
	}

	return comp, nil
}
