// Package capability defines the external embedding and generation
// capabilities as explicit objects with init/teardown lifecycles.
//
// The core never talks to a model directly; it depends on these
// contracts, and callers decide whether the provider is local or remote.
package capability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrEmptyText      = errors.New("text cannot be empty")
	ErrInvalidInput   = errors.New("invalid input")
	ErrProviderFailed = errors.New("provider call failed")
	ErrNoAPIKey       = errors.New("no API key configured")
)

// GenerateOptions shape answer generation; values are passed opaquely to
// the provider.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// Embedder converts text into fixed-dimension vectors. The dimension is
// fixed per instance and must match across all vectors in one index.
type Embedder interface {
	// EmbedText generates an embedding for a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// The result preserves input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension for this provider.
	Dimension() int

	// Close releases any resources held by the embedder.
	Close() error
}

// Generator produces natural-language text from retrieved context.
type Generator interface {
	// GenerateAnswer answers a question from assembled context.
	GenerateAnswer(ctx context.Context, contextText, question string, opts GenerateOptions) (string, error)

	// SummarizeSymbol produces a one-paragraph summary of a code symbol.
	SummarizeSymbol(ctx context.Context, signature, docComment string) (string, error)

	// Close releases any resources held by the generator.
	Close() error
}

// Cache provides in-memory LRU caching of embeddings by content hash.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates an embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		// Only possible with a non-positive size.
		cache, _ = lru.New[string, []float32](10000)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector. Returning a copy prevents
// caller mutations from reaching the cached value.
func (c *Cache) Get(hash string) ([]float32, bool) {
	vec, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector with automatic LRU eviction.
func (c *Cache) Set(hash string, vec []float32) {
	c.cache.Add(hash, vec)
}

// Size returns the current cache size.
func (c *Cache) Size() int {
	return c.cache.Len()
}

// ComputeHash computes the SHA-256 hash of text for cache keys.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
