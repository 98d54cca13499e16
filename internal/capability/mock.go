package capability

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

// Mock is a deterministic in-process capability used by tests and by
// offline development. Its vectors are derived from word content, so
// texts sharing vocabulary embed close together and cosine similarity
// behaves like a crude lexical retriever.
type Mock struct {
	dimension int

	// Call counters, for asserting the generator was or was not invoked.
	EmbedCalls    atomic.Int32
	GenerateCalls atomic.Int32

	// FailEmbeds makes the next N embed calls fail, for retry testing.
	FailEmbeds atomic.Int32
}

// Ensure Mock satisfies both capability contracts.
var (
	_ Embedder  = (*Mock)(nil)
	_ Generator = (*Mock)(nil)
)

// NewMock creates a mock capability with the given dimension.
func NewMock(dimension int) *Mock {
	if dimension <= 0 {
		dimension = 64
	}
	return &Mock{dimension: dimension}
}

// Dimension returns the embedding dimension.
func (m *Mock) Dimension() int {
	return m.dimension
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// EmbedText produces a deterministic bag-of-words vector.
func (m *Mock) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrEmptyText
	}
	m.EmbedCalls.Add(1)
	if m.FailEmbeds.Load() > 0 {
		m.FailEmbeds.Add(-1)
		return nil, fmt.Errorf("%w: simulated failure", ErrProviderFailed)
	}
	return m.vectorFor(text), nil
}

// EmbedBatch embeds each text in order.
func (m *Mock) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := m.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, vec)
	}
	return vecs, nil
}

// GenerateAnswer returns a canned answer that echoes the question.
func (m *Mock) GenerateAnswer(ctx context.Context, contextText, question string, _ GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.GenerateCalls.Add(1)
	return fmt.Sprintf("Based on the documentation: %s", firstLine(contextText)), nil
}

// SummarizeSymbol returns a canned summary.
func (m *Mock) SummarizeSymbol(ctx context.Context, signature, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.GenerateCalls.Add(1)
	return fmt.Sprintf("Summary of %s", firstLine(signature)), nil
}

// vectorFor hashes each lowercase word into a handful of dimensions.
// Identical words always hit the same dimensions, so overlapping
// vocabulary yields high cosine similarity.
func (m *Mock) vectorFor(text string) []float32 {
	vec := make([]float32, m.dimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,:;!?\"'()[]{}")
		if word == "" {
			continue
		}
		h := sha256.Sum256([]byte(word))
		for k := 0; k < 3; k++ {
			idx := binary.LittleEndian.Uint32(h[k*4:]) % uint32(m.dimension)
			vec[idx] += 1.0
		}
	}

	// L2 normalize so cosine similarity is a plain dot product.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
