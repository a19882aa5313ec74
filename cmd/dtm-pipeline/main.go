package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cognicore/dtm/pkg/dtm"
	"github.com/cognicore/dtm/pkg/dtm/config"
	"github.com/cognicore/dtm/pkg/dtm/store"
	"github.com/cognicore/dtm/pkg/dtm/store/sqlite"
	"github.com/cognicore/dtm/pkg/dtm/token"
)

// tokenJSON is the JSONL input record, one token per line.
type tokenJSON struct {
	Doc     string `json:"doc"`
	Par     int    `json:"par"`
	Sent    int    `json:"sent"`
	Pos     int    `json:"pos"`
	Surface string `json:"surface"`
	Lemma   string `json:"lemma,omitempty"`
	Tag     string `json:"tag,omitempty"`
}

type report struct {
	SnapshotID string          `json:"snapshot_id"`
	Rows       int             `json:"rows"`
	Terms      int             `json:"terms"`
	TopTerms   []termCountJSON `json:"top_terms"`
	TopPairs   []pairJSON      `json:"top_pairs"`
}

type termCountJSON struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

type pairJSON struct {
	A     string `json:"a"`
	B     string `json:"b"`
	Count int    `json:"count"`
}

func main() {
	var (
		input   = flag.String("tokens", "", "Path to token JSONL file (required)")
		cfgPath = flag.String("config", "", "Pipeline YAML config (required)")
		dbPath  = flag.String("db", "", "Optional: SQLite database for snapshot persistence")
		workers = flag.Int("workers", 1, "Per-document aggregation workers")
		topN    = flag.Int("top", 20, "Number of terms/pairs to include in the report")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--tokens required")
	}
	if *cfgPath == "" {
		log.Fatal("--config required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	var st store.Store
	if *dbPath != "" {
		st, err = sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
	}

	engine, err := dtm.New(dtm.Options{Config: cfg, Store: st, Workers: *workers})
	if err != nil {
		log.Fatalf("init pipeline: %v", err)
	}
	defer engine.Close()

	tokens, err := readTokens(*input)
	if err != nil {
		log.Fatalf("read tokens: %v", err)
	}

	result, err := engine.Run(ctx, tokens)
	if err != nil {
		log.Fatalf("run pipeline: %v", err)
	}

	rep := report{
		SnapshotID: result.Snapshot.ID,
		Rows:       len(result.Snapshot.Rows),
		Terms:      len(result.Snapshot.Terms),
	}
	for i, tc := range result.Snapshot.ColumnSums {
		if i >= *topN {
			break
		}
		rep.TopTerms = append(rep.TopTerms, termCountJSON{Term: tc.Term, Count: tc.Count})
	}
	for i, p := range result.Pairs.Pairs {
		if i >= *topN {
			break
		}
		rep.TopPairs = append(rep.TopPairs, pairJSON{A: p.Pair.A, B: p.Pair.B, Count: p.Count})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Fatalf("write report: %v", err)
	}
}

// readTokens parses the JSONL token stream, identifying the offending
// line on failure.
func readTokens(path string) ([]token.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tokens []token.Token
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec tokenJSON
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tokens = append(tokens, token.Token{
			DocID:       rec.Doc,
			ParagraphID: rec.Par,
			SentenceID:  rec.Sent,
			Position:    rec.Pos,
			Surface:     rec.Surface,
			Lemma:       rec.Lemma,
			POS:         rec.Tag,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
