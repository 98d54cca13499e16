package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docassist/internal/capability"
	"github.com/dshills/docassist/internal/config"
	"github.com/dshills/docassist/pkg/types"
)

const authDoc = `# Authentication

Every request must include an ` + "`X-API-Key`" + ` header containing your
API key. Requests without a valid key receive a 401 response.

# Rate Limits

Clients are limited to 100 requests per minute per key.
`

func newTestService(t *testing.T) (*Service, *capability.Mock) {
	t.Helper()

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Collection = "test_docs"
	cfg.Chunking.MaxChunkTokens = 50
	cfg.Chunking.OverlapTokens = 10
	cfg.Retrieval.MinSimilarity = 0.05

	mock := capability.NewMock(64)
	svc, err := New(cfg, mock, mock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	return svc, mock
}

func TestIngestFiles_Report(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	report, err := svc.IngestFiles(ctx, []FileInput{
		{Name: "auth.md", Data: []byte(authDoc)},
		{Name: "notes.txt", Data: []byte("The service speaks JSON over HTTPS.")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilesIngested)
	assert.Greater(t, report.ChunksIndexed, 0)
	assert.Empty(t, report.Failures)
	assert.Empty(t, report.Warnings)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.ChunksIndexed, stats.ChunkCount)
	assert.ElementsMatch(t, []string{"auth.md", "notes.txt"}, stats.Sources)
}

func TestIngestFiles_BadFileDoesNotSinkBatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	report, err := svc.IngestFiles(ctx, []FileInput{
		{Name: "auth.md", Data: []byte(authDoc)},
		{Name: "diagram.xyz", Data: []byte("binary blob")},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesIngested)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "diagram.xyz", report.Failures[0].Name)
}

func TestIngestFiles_EmptyFileWarnsInsteadOfFailing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	report, err := svc.IngestFiles(ctx, []FileInput{
		{Name: "empty.txt", Data: []byte("   \n\n  ")},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, report.FilesIngested)
	assert.Empty(t, report.Failures)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "empty.txt")
}

func TestIngestFiles_RejectsConcurrentWriter(t *testing.T) {
	svc, _ := newTestService(t)

	require.True(t, svc.writeLock.TryAcquire())
	defer svc.writeLock.Release()

	_, err := svc.IngestFiles(context.Background(), []FileInput{
		{Name: "auth.md", Data: []byte(authDoc)},
	})
	assert.ErrorIs(t, err, ErrIngestInProgress)
}

func TestAsk_AnswersFromIngestedDocs(t *testing.T) {
	svc, mock := newTestService(t)
	ctx := context.Background()

	_, err := svc.IngestFiles(ctx, []FileInput{
		{Name: "auth.md", Data: []byte(authDoc)},
	})
	require.NoError(t, err)

	answer, err := svc.Ask(ctx, "How do I authenticate requests with the API key header?")
	require.NoError(t, err)

	assert.False(t, answer.NoContext)
	assert.NotEmpty(t, answer.Text)
	assert.NotEqual(t, types.ConfidenceNone, answer.Confidence)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "auth.md", answer.Sources[0].SourceName)
	assert.Greater(t, mock.GenerateCalls.Load(), int32(0))
}

// cappedBatchEmbedder enforces the production provider's per-call
// batch limit on top of the offline mock.
type cappedBatchEmbedder struct {
	*capability.Mock
}

func (e *cappedBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) > capability.MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts per batch", capability.ErrInvalidInput, capability.MaxBatchSize)
	}
	return e.Mock.EmbedBatch(ctx, texts)
}

func TestIngestFiles_LargeDocumentStaysUnderBatchLimit(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Chunking.MaxChunkTokens = 10
	cfg.Chunking.OverlapTokens = 2
	cfg.Retrieval.MinSimilarity = 0.05

	mock := capability.NewMock(64)
	svc, err := New(cfg, &cappedBatchEmbedder{Mock: mock}, mock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	var sb strings.Builder
	for i := 0; i < 1200; i++ {
		fmt.Fprintf(&sb, "word%d ", i)
	}

	report, err := svc.IngestFiles(context.Background(), []FileInput{
		{Name: "big.txt", Data: []byte(sb.String())},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesIngested)
	assert.Empty(t, report.Failures)
	assert.Greater(t, report.ChunksIndexed, capability.MaxBatchSize)
}

func TestAsk_TopBandForDirectHit(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Chunking.MaxChunkTokens = 50
	cfg.Chunking.OverlapTokens = 10
	cfg.Retrieval.MinSimilarity = 0.05
	// The offline embedder scores lexical overlap; cutoffs are tuned so a
	// direct vocabulary hit lands in the top band.
	cfg.Retrieval.HighConfidence = 0.30
	cfg.Retrieval.MediumConfidence = 0.15

	mock := capability.NewMock(64)
	svc, err := New(cfg, mock, mock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	ctx := context.Background()
	_, err = svc.IngestFiles(ctx, []FileInput{
		{Name: "auth.txt", Data: []byte("Auth: send API key in `X-API-Key` header.")},
	})
	require.NoError(t, err)

	answer, err := svc.Ask(ctx, "How do I send the API key header?")
	require.NoError(t, err)

	assert.Equal(t, types.ConfidenceHigh, answer.Confidence)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "auth.txt", answer.Sources[0].SourceName)
}

func TestAsk_EmptyCollectionSignalsNoContext(t *testing.T) {
	svc, mock := newTestService(t)

	answer, err := svc.Ask(context.Background(), "How do I authenticate?")
	require.NoError(t, err)

	assert.True(t, answer.NoContext)
	assert.Equal(t, types.ConfidenceNone, answer.Confidence)
	assert.Empty(t, answer.Sources)
	// The generation capability is never invoked without context.
	assert.Equal(t, int32(0), mock.GenerateCalls.Load())
}

func TestAsk_NoGeneratorConfigured(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Retrieval.MinSimilarity = 0.05

	mock := capability.NewMock(64)
	svc, err := New(cfg, mock, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	_, err = svc.IngestFiles(context.Background(), []FileInput{
		{Name: "auth.md", Data: []byte(authDoc)},
	})
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), "How do I authenticate requests with the API key header?")
	assert.ErrorIs(t, err, types.ErrCapability)
}

func TestGenerateDocs_PythonEndpointAndTest(t *testing.T) {
	svc, _ := newTestService(t)

	source := `from flask import Flask

@app.route("/users/<id>", methods=["GET"])
def get_user(id):
    """Fetch a single user."""
    return find_user(id)

def test_login():
    assert login("bob")
`

	doc, table, err := svc.GenerateDocs(context.Background(), "api.py", []byte(source), "python", false)
	require.NoError(t, err)

	assert.Equal(t, 1, table.CountKind(types.KindEndpoint))
	assert.Equal(t, 1, table.CountKind(types.KindTest))
	assert.Contains(t, doc.Markdown, "## API Endpoints")
	assert.Contains(t, doc.Markdown, "## Tests")
	assert.Contains(t, doc.Sections, "API Endpoints")
}

func TestGenerateDocs_InputTooLarge(t *testing.T) {
	svc, _ := newTestService(t)
	svc.cfg.MaxCodeLength = 10

	_, _, err := svc.GenerateDocs(context.Background(), "big.py", []byte("def f():\n    pass\n"), "python", false)
	assert.ErrorIs(t, err, types.ErrInputTooLarge)
}

func TestGenerateDocs_EmptyInput(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.GenerateDocs(context.Background(), "empty.py", nil, "python", false)
	assert.ErrorIs(t, err, types.ErrEmptyDocument)
}

func TestResetCollection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.IngestFiles(ctx, []FileInput{
		{Name: "auth.md", Data: []byte(authDoc)},
	})
	require.NoError(t, err)

	require.NoError(t, svc.ResetCollection(ctx))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ChunkCount)
	assert.Empty(t, stats.Sources)

	answer, err := svc.Ask(ctx, "How do I authenticate?")
	require.NoError(t, err)
	assert.True(t, answer.NoContext)
}

func TestSuggestedQuestions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	questions, err := svc.SuggestedQuestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, questions)

	_, err = svc.IngestFiles(ctx, []FileInput{
		{Name: "auth.md", Data: []byte(authDoc)},
	})
	require.NoError(t, err)

	questions, err = svc.SuggestedQuestions(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, questions)
	assert.Contains(t, questions, "What does auth.md cover?")
}

func TestIngestThenAskSurvivesReopen(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Retrieval.MinSimilarity = 0.05

	mock := capability.NewMock(64)
	svc, err := New(cfg, mock, mock)
	require.NoError(t, err)

	_, err = svc.IngestFiles(context.Background(), []FileInput{
		{Name: "auth.md", Data: []byte(authDoc)},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	reopened, err := New(cfg, mock, mock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	answer, err := reopened.Ask(context.Background(), "How do I authenticate requests with the API key header?")
	require.NoError(t, err)
	assert.False(t, answer.NoContext)
}
