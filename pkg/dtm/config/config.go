package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/dtm/pkg/dtm/internalerr"
)

// Pipeline is the YAML-facing configuration for a full run: recoding
// stages, which token field becomes the counted term, the grouping
// that defines a matrix row, and the filter chain.
type Pipeline struct {
	TermField string  `yaml:"term_field"` // surface | lemma
	GroupBy   string  `yaml:"group_by"`   // document | paragraph | sentence
	FoldCase  *bool   `yaml:"fold_case"`  // default true
	Stages    []Stage `yaml:"stages"`
	Filters   Filters `yaml:"filters"`
}

// Stage is one recoding pass: a list of candidate phrases, each a
// whitespace-separated multi-word expression.
type Stage struct {
	Candidates []string `yaml:"candidates"`
}

// Filters configures the matrix filter chain. Zero values disable the
// corresponding filter.
type Filters struct {
	MinDocFrequency int      `yaml:"min_doc_frequency"`
	RemoveTerms     []string `yaml:"remove_terms"`
	TopK            int      `yaml:"top_k"`
}

// Load reads a pipeline configuration from a YAML file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

// Validate checks field values and fills defaults.
func (p *Pipeline) Validate() error {
	switch p.TermField {
	case "":
		p.TermField = "surface"
	case "surface", "lemma":
	default:
		return fmt.Errorf("%w: term_field %q, want surface or lemma", internalerr.ErrInvalidConfig, p.TermField)
	}

	switch p.GroupBy {
	case "":
		p.GroupBy = "document"
	case "document", "paragraph", "sentence":
	default:
		return fmt.Errorf("%w: group_by %q, want document, paragraph or sentence", internalerr.ErrInvalidConfig, p.GroupBy)
	}

	if p.Filters.MinDocFrequency < 0 {
		return fmt.Errorf("%w: min_doc_frequency must not be negative", internalerr.ErrInvalidConfig)
	}
	if p.Filters.TopK < 0 {
		return fmt.Errorf("%w: top_k must not be negative", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Fold reports the effective case-folding policy (default true, as
// upstream tokenization lowercases).
func (p *Pipeline) Fold() bool {
	if p.FoldCase == nil {
		return true
	}
	return *p.FoldCase
}
