// Package retriever turns a natural-language query into ranked context.
//
// It embeds the query via the injected embedding capability, queries the
// vector index, filters by minimum similarity, assembles a context window
// under a token budget, and maps the top similarity into a confidence
// band. An empty collection or a query where nothing passes the threshold
// yields types.ErrNoRelevantContext, which callers must branch on
// distinctly from a normal low-confidence result.
package retriever

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/docassist/internal/capability"
	"github.com/dshills/docassist/internal/vecindex"
	"github.com/dshills/docassist/pkg/types"
)

// Options configure a Retriever.
type Options struct {
	K                  int
	MinSimilarity      float64
	ContextTokenBudget int

	// Confidence cutoffs. The mapping is monotonic and total: every
	// similarity maps to exactly one band.
	HighConfidence   float64
	MediumConfidence float64

	// CacheTTL enables the query cache when positive.
	CacheTTL time.Duration
}

// Retrieval is the outcome of one query.
type Retrieval struct {
	Results    []types.RetrievalResult
	Context    string
	Confidence types.ConfidenceBand

	// TopSimilarity is the best raw score before banding.
	TopSimilarity float64
}

// cacheEntry is a cached retrieval with an expiration time.
type cacheEntry struct {
	retrieval *Retrieval
	expiresAt time.Time
}

// Retriever coordinates query-time retrieval.
type Retriever struct {
	index    *vecindex.Index
	embedder capability.Embedder
	opts     Options

	cache   *lru.Cache[string, *cacheEntry]
	cacheMu sync.Mutex
}

// New creates a Retriever. Zero option fields get working defaults.
func New(index *vecindex.Index, embedder capability.Embedder, opts Options) *Retriever {
	if opts.K <= 0 {
		opts.K = 5
	}
	if opts.ContextTokenBudget <= 0 {
		opts.ContextTokenBudget = 3000
	}
	if opts.HighConfidence == 0 {
		opts.HighConfidence = 0.80
	}
	if opts.MediumConfidence == 0 {
		opts.MediumConfidence = 0.55
	}

	cache, err := lru.New[string, *cacheEntry](1000)
	if err != nil {
		// Only possible with a non-positive size.
		panic(fmt.Sprintf("failed to create query cache: %v", err))
	}

	return &Retriever{
		index:    index,
		embedder: embedder,
		opts:     opts,
		cache:    cache,
	}
}

// Retrieve runs the retrieval pipeline for a query.
func (r *Retriever) Retrieve(ctx context.Context, query string) (*Retrieval, error) {
	if strings.TrimSpace(query) == "" {
		return nil, capability.ErrEmptyText
	}

	if cached := r.checkCache(query); cached != nil {
		return cached, nil
	}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query embedding: %v", types.ErrCapability, err)
	}

	matches, err := r.index.Query(ctx, vector, r.opts.K)
	if err != nil {
		return nil, fmt.Errorf("index query failed: %w", err)
	}

	kept := make([]types.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		if m.Similarity < r.opts.MinSimilarity {
			continue
		}
		kept = append(kept, types.RetrievalResult{
			ChunkID:    m.Entry.ChunkID,
			Similarity: m.Similarity,
			Text:       m.Entry.Text,
			SourceName: m.Entry.SourceName,
			Sequence:   m.Entry.Sequence,
		})
	}

	if len(kept) == 0 {
		return nil, types.ErrNoRelevantContext
	}

	retrieval := &Retrieval{
		Results:       r.assembleContext(kept),
		TopSimilarity: kept[0].Similarity,
		Confidence:    r.Band(kept[0].Similarity),
	}
	retrieval.Context = joinContext(retrieval.Results)

	r.storeCache(query, retrieval)
	return retrieval, nil
}

// Band maps a similarity score to a confidence band. The mapping is
// monotonic: a higher score never yields a lower tier.
func (r *Retriever) Band(similarity float64) types.ConfidenceBand {
	switch {
	case similarity >= r.opts.HighConfidence:
		return types.ConfidenceHigh
	case similarity >= r.opts.MediumConfidence:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// assembleContext greedily keeps results in descending similarity order
// until the token budget is exhausted. A chunk is never split to fit.
func (r *Retriever) assembleContext(results []types.RetrievalResult) []types.RetrievalResult {
	kept := make([]types.RetrievalResult, 0, len(results))
	budget := r.opts.ContextTokenBudget

	for _, res := range results {
		cost := types.EstimateTokens(res.Text)
		if cost > budget && len(kept) > 0 {
			continue
		}
		// The top result is always included so retrieval never returns
		// a successful result with an empty context.
		kept = append(kept, res)
		budget -= cost
		if budget <= 0 {
			break
		}
	}
	return kept
}

func joinContext(results []types.RetrievalResult) string {
	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, fmt.Sprintf("[%s #%d]\n%s", res.SourceName, res.Sequence, res.Text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// FlushCache drops all cached retrievals. Callers must flush after the
// underlying collection changes, or cached results may cite chunks that
// no longer exist.
func (r *Retriever) FlushCache() {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cache.Purge()
}

func (r *Retriever) checkCache(query string) *Retrieval {
	if r.opts.CacheTTL <= 0 {
		return nil
	}
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	key := capability.ComputeHash(query)
	entry, ok := r.cache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		r.cache.Remove(key)
		return nil
	}
	return entry.retrieval
}

func (r *Retriever) storeCache(query string, retrieval *Retrieval) {
	if r.opts.CacheTTL <= 0 {
		return
	}
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache.Add(capability.ComputeHash(query), &cacheEntry{
		retrieval: retrieval,
		expiresAt: time.Now().Add(r.opts.CacheTTL),
	})
}
