package dtm

import (
	"context"
	"sync"

	"github.com/cognicore/dtm/pkg/dtm/config"
	"github.com/cognicore/dtm/pkg/dtm/export"
	"github.com/cognicore/dtm/pkg/dtm/matrix"
	"github.com/cognicore/dtm/pkg/dtm/recode"
	"github.com/cognicore/dtm/pkg/dtm/store"
	"github.com/cognicore/dtm/pkg/dtm/token"
)

// Engine is the main pipeline facade: recode, aggregate, filter,
// snapshot.
type Engine struct {
	comp    *config.Components
	store   store.Store
	snap    *export.Builder
	workers int
}

// Options configures an Engine instance.
type Options struct {
	Config *config.Pipeline
	Store  store.Store // optional snapshot persistence
	// Workers bounds per-document parallel recoding and aggregation;
	// values below 1 mean sequential.
	Workers int
}

// New creates an Engine with the given dependencies.
func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Pipeline{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	comp, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Engine{
		comp:    comp,
		store:   opts.Store,
		snap:    export.New(),
		workers: opts.Workers,
	}, nil
}

// Close cleanly shuts down the engine.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Result is the outcome of one pipeline run.
type Result struct {
	Matrix   *matrix.Matrix
	Snapshot export.Snapshot
	Pairs    export.PairReport
}

// Run validates the token stream, recodes it through every configured
// stage, aggregates it into a matrix, applies the filter chain, and
// freezes a snapshot. When a store is configured the snapshot and
// pair counts are persisted under the snapshot's id.
func (e *Engine) Run(ctx context.Context, tokens []token.Token) (*Result, error) {
	if err := token.ValidateStream(tokens); err != nil {
		return nil, err
	}

	builder := e.aggregate(tokens)
	m := builder.Build()

	m, err := e.filter(m)
	if err != nil {
		return nil, err
	}

	snap := e.snap.Build(m)
	pairs := export.BuildPairs(matrix.Cooccur(m, nil))

	if e.store != nil {
		if err := e.store.SaveSnapshot(ctx, snap); err != nil {
			return nil, err
		}
		if err := e.store.SavePairs(ctx, snap.ID, pairs); err != nil {
			return nil, err
		}
	}

	return &Result{Matrix: m, Snapshot: snap, Pairs: pairs}, nil
}

// aggregate recodes and counts, per document. Documents are
// independent, so with more than one worker each goroutine fills its
// own partial builder and the partials are merged at the end.
func (e *Engine) aggregate(tokens []token.Token) *matrix.Builder {
	docs := token.SplitByDocument(tokens)

	if e.workers <= 1 || len(docs) <= 1 {
		b := matrix.NewBuilder()
		for _, doc := range docs {
			b.AddTerms(e.recodeDoc(doc))
		}
		return b
	}

	workers := e.workers
	if workers > len(docs) {
		workers = len(docs)
	}

	partials := make([]*matrix.Builder, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		partials[w] = matrix.NewBuilder()
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(docs); i += workers {
				partials[w].AddTerms(e.recodeDoc(docs[i]))
			}
		}(w)
	}
	wg.Wait()

	merged := matrix.NewBuilder()
	for _, p := range partials {
		merged.Merge(p)
	}
	return merged
}

// recodeDoc runs one document through every recoding stage.
func (e *Engine) recodeDoc(doc []token.Token) []recode.Term {
	return e.comp.Recoder.Run(doc, e.comp.Selector, e.comp.Key)
}

// filter applies the configured filter chain in order: low-frequency
// pruning, named-term removal, then TF-IDF top-K.
func (e *Engine) filter(m *matrix.Matrix) (*matrix.Matrix, error) {
	f := e.comp.Filters

	if f.MinDocFrequency > 0 {
		pruned, err := matrix.PruneLowFrequency(m, f.MinDocFrequency)
		if err != nil {
			return nil, err
		}
		m = pruned
	}
	if len(f.RemoveTerms) > 0 {
		m = matrix.RemoveTerms(m, f.RemoveTerms)
	}
	if f.TopK > 0 {
		kept, err := matrix.TopKTFIDF(m, f.TopK)
		if err != nil {
			return nil, err
		}
		m = kept
	}
	return m, nil
}
