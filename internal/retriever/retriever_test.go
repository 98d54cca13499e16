package retriever

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docassist/internal/capability"
	"github.com/dshills/docassist/internal/vecindex"
	"github.com/dshills/docassist/pkg/types"
)

func setup(t *testing.T, opts Options) (*Retriever, *vecindex.Index, *capability.Mock) {
	t.Helper()
	ix, err := vecindex.Open(t.TempDir(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	mock := capability.NewMock(128)
	return New(ix, mock, opts), ix, mock
}

func ingest(t *testing.T, ix *vecindex.Index, m *capability.Mock, texts ...string) {
	t.Helper()
	ctx := context.Background()
	entries := make([]vecindex.Entry, 0, len(texts))
	for i, text := range texts {
		vec, err := m.EmbedText(ctx, text)
		require.NoError(t, err)
		entries = append(entries, vecindex.Entry{
			ChunkID:    strings.Repeat("c", i+1),
			DocumentID: "doc",
			SourceName: "doc.txt",
			Sequence:   i,
			Text:       text,
			Vector:     vec,
		})
	}
	require.NoError(t, ix.Upsert(ctx, entries))
}

func TestRetrieve_EmptyCollectionSignalsNoContext(t *testing.T) {
	r, _, _ := setup(t, Options{})

	_, err := r.Retrieve(context.Background(), "anything at all")
	assert.ErrorIs(t, err, types.ErrNoRelevantContext)
}

func TestRetrieve_BelowThresholdSignalsNoContext(t *testing.T) {
	r, ix, m := setup(t, Options{MinSimilarity: 0.99})
	ingest(t, ix, m, "completely unrelated content about gardening")

	_, err := r.Retrieve(context.Background(), "how do I authenticate")
	assert.ErrorIs(t, err, types.ErrNoRelevantContext)
}

func TestRetrieve_FindsRelevantChunk(t *testing.T) {
	r, ix, m := setup(t, Options{MinSimilarity: 0.1})
	ingest(t, ix, m,
		"Auth: send API key in the X-API-Key header.",
		"Rate limits: 100 requests per minute per client.",
	)

	got, err := r.Retrieve(context.Background(), "how do I send the API key to authenticate")
	require.NoError(t, err)

	require.NotEmpty(t, got.Results)
	assert.Contains(t, got.Results[0].Text, "X-API-Key")
	assert.Contains(t, got.Context, "X-API-Key")
	assert.Equal(t, "doc.txt", got.Results[0].SourceName)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	r, _, _ := setup(t, Options{})
	_, err := r.Retrieve(context.Background(), "   ")
	assert.ErrorIs(t, err, capability.ErrEmptyText)
}

func TestBand_Monotonic(t *testing.T) {
	r, _, _ := setup(t, Options{HighConfidence: 0.80, MediumConfidence: 0.55})

	rank := func(b types.ConfidenceBand) int {
		switch b {
		case types.ConfidenceHigh:
			return 3
		case types.ConfidenceMedium:
			return 2
		default:
			return 1
		}
	}

	prev := -1
	for s := 0.0; s <= 1.0; s += 0.01 {
		cur := rank(r.Band(s))
		assert.GreaterOrEqual(t, cur, prev, "band must not drop as similarity rises (s=%f)", s)
		prev = cur
	}

	assert.Equal(t, types.ConfidenceHigh, r.Band(0.80))
	assert.Equal(t, types.ConfidenceMedium, r.Band(0.55))
	assert.Equal(t, types.ConfidenceMedium, r.Band(0.79))
	assert.Equal(t, types.ConfidenceLow, r.Band(0.54))
	assert.Equal(t, types.ConfidenceLow, r.Band(-1))
}

func TestAssembleContext_RespectsBudget(t *testing.T) {
	r, _, _ := setup(t, Options{ContextTokenBudget: 100})

	big := strings.Repeat("word ", 200) // ~250 tokens by the chars/4 estimate
	results := []types.RetrievalResult{
		{ChunkID: "a", Similarity: 0.9, Text: big, SourceName: "s", Sequence: 0},
		{ChunkID: "b", Similarity: 0.8, Text: big, SourceName: "s", Sequence: 1},
	}

	kept := r.assembleContext(results)
	// The top result always survives; the second would blow the budget.
	require.Len(t, kept, 1)
	assert.Equal(t, "a", kept[0].ChunkID)
}

func TestAssembleContext_SkipsOversizedKeepsSmaller(t *testing.T) {
	r, _, _ := setup(t, Options{ContextTokenBudget: 100})

	results := []types.RetrievalResult{
		{ChunkID: "a", Similarity: 0.9, Text: "short answer", SourceName: "s", Sequence: 0},
		{ChunkID: "b", Similarity: 0.8, Text: strings.Repeat("word ", 200), SourceName: "s", Sequence: 1},
		{ChunkID: "c", Similarity: 0.7, Text: "another short one", SourceName: "s", Sequence: 2},
	}

	kept := r.assembleContext(results)
	ids := make([]string, 0, len(kept))
	for _, k := range kept {
		ids = append(ids, k.ChunkID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestRetrieve_CacheHit(t *testing.T) {
	r, ix, m := setup(t, Options{MinSimilarity: 0.1, CacheTTL: time.Minute})
	ingest(t, ix, m, "the answer lives here in this chunk of text")

	_, err := r.Retrieve(context.Background(), "where does the answer live")
	require.NoError(t, err)
	calls := m.EmbedCalls.Load()

	_, err = r.Retrieve(context.Background(), "where does the answer live")
	require.NoError(t, err)
	assert.Equal(t, calls, m.EmbedCalls.Load(), "cached retrieval must not re-embed")
}

func TestRetrieve_EmbedFailureSurfacesCapabilityError(t *testing.T) {
	r, ix, m := setup(t, Options{MinSimilarity: 0.1})
	ingest(t, ix, m, "some indexed content")

	m.FailEmbeds.Store(1)
	_, err := r.Retrieve(context.Background(), "query text here")
	assert.ErrorIs(t, err, types.ErrCapability)
}
