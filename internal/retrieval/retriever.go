// Package retrieval selects the passages of a document most relevant to a
// question. The document is cut into overlapping word windows, each window is
// scored by keyword frequency plus a super-linear bonus for keyword coverage,
// and the best windows are joined into a bounded context string.
package retrieval

import (
	"cmp"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Path names the branch that produced a Result.
type Path string

const (
	PathWhole      Path = "whole"       // document fits in one chunk
	PathNoKeywords Path = "no_keywords" // query had no usable terms
	PathNoMatches  Path = "no_matches"  // every chunk scored zero
	PathRanked     Path = "ranked"
)

// ScoredChunk is a chunk with its position in the chunk sequence and its score.
type ScoredChunk struct {
	Index int    `json:"index"`
	Text  string `json:"-"`
	Score
}

// Result is the outcome of one retrieval call.
type Result struct {
	Context  string        `json:"context"`
	Path     Path          `json:"path"`
	Keywords []string      `json:"keywords,omitempty"`
	Chunks   []ScoredChunk `json:"chunks,omitempty"` // selected chunks, best first
	Total    int           `json:"total_chunks"`
}

// Retriever is an immutable, concurrency-safe retrieval pipeline.
type Retriever struct {
	opts   Options
	scorer scorer
}

// New validates opts and builds a Retriever.
func New(opts Options) (*Retriever, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Retriever{
		opts:   opts,
		scorer: scorer{exponent: opts.CoverageExponent, multiplier: opts.CoverageMultiplier},
	}, nil
}

var defaultRetriever = func() *Retriever {
	r, err := New(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return r
}()

// Default returns the Retriever built from DefaultOptions.
func Default() *Retriever { return defaultRetriever }

// GetRelevantChunks returns the context for query drawn from documentText
// using the default options.
func GetRelevantChunks(documentText, query string) string {
	return defaultRetriever.Retrieve(documentText, query).Context
}

// Options returns the configuration of r.
func (r *Retriever) Options() Options { return r.opts }

// Chunk splits text using the configured window.
func (r *Retriever) Chunk(text string) []string {
	return chunkWords(text, r.opts.ChunkSize, r.opts.Overlap)
}

// Rank scores every chunk against keywords and returns them sorted by
// descending score. Equal scores keep their original order.
func (r *Retriever) Rank(chunks []string, keywords KeywordSet) []ScoredChunk {
	ms := compileMatchers(keywords)
	scored := make([]ScoredChunk, len(chunks))
	score := func(i int) {
		scored[i] = ScoredChunk{Index: i, Text: chunks[i], Score: r.scorer.score(chunks[i], ms)}
	}

	if r.opts.ParallelThreshold > 0 && len(chunks) >= r.opts.ParallelThreshold {
		var g errgroup.Group
		g.SetLimit(r.parallelism())
		for i := range chunks {
			g.Go(func() error {
				score(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range chunks {
			score(i)
		}
	}

	slices.SortStableFunc(scored, func(a, b ScoredChunk) int {
		return cmp.Compare(b.Value, a.Value)
	})
	return scored
}

func (r *Retriever) parallelism() int {
	if r.opts.Parallelism > 0 {
		return r.opts.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

// Retrieve runs the full pipeline: chunk, extract keywords, score, select.
func (r *Retriever) Retrieve(documentText, query string) Result {
	chunks := r.Chunk(documentText)
	if len(chunks) <= 1 {
		return Result{Context: documentText, Path: PathWhole, Total: len(chunks)}
	}

	keywords := ExtractKeywords(query)
	if len(keywords) == 0 {
		return r.fallback(chunks, PathNoKeywords, nil)
	}

	terms := keywords.Terms()
	ranked := r.Rank(chunks, keywords)
	top := make([]ScoredChunk, 0, r.opts.MaxSelectedChunks)
	for _, c := range ranked {
		if c.Value == 0 || len(top) == r.opts.MaxSelectedChunks {
			break
		}
		top = append(top, c)
	}
	if len(top) == 0 {
		return r.fallback(chunks, PathNoMatches, terms)
	}

	texts := make([]string, len(top))
	for i, c := range top {
		texts[i] = c.Text
	}
	return Result{
		Context:  strings.Join(texts, r.opts.Separator),
		Path:     PathRanked,
		Keywords: terms,
		Chunks:   top,
		Total:    len(chunks),
	}
}

// fallback returns the leading chunks in document order.
func (r *Retriever) fallback(chunks []string, path Path, terms []string) Result {
	n := min(r.opts.FallbackChunks, len(chunks))
	selected := make([]ScoredChunk, n)
	for i := range n {
		selected[i] = ScoredChunk{Index: i, Text: chunks[i]}
	}
	return Result{
		Context:  strings.Join(chunks[:n], r.opts.Separator),
		Path:     path,
		Keywords: terms,
		Chunks:   selected,
		Total:    len(chunks),
	}
}
