// Package rag wires the ingestion and query pipelines together: load,
// chunk, embed, index on the write side; retrieve, band, generate on
// the read side; plus structural code documentation.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/docassist/internal/analyzer"
	"github.com/dshills/docassist/internal/capability"
	"github.com/dshills/docassist/internal/chunker"
	"github.com/dshills/docassist/internal/config"
	"github.com/dshills/docassist/internal/docgen"
	"github.com/dshills/docassist/internal/loader"
	"github.com/dshills/docassist/internal/retriever"
	"github.com/dshills/docassist/internal/vecindex"
	"github.com/dshills/docassist/pkg/types"
)

// ErrIngestInProgress is returned when a write operation is attempted
// while another ingestion or reset holds the collection.
var ErrIngestInProgress = errors.New("an ingestion is already in progress for this collection")

const (
	defaultWorkers  = 4
	queryCacheTTL   = 5 * time.Minute
	noContextAnswer = "I could not find relevant information in the indexed documentation. " +
		"Try uploading more documents or rephrasing the question."
)

// FileInput is one uploaded file.
type FileInput struct {
	Name string
	Data []byte
}

// FileFailure records a per-file ingestion error. One bad file never
// aborts the batch.
type FileFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// IngestReport summarizes one ingestion batch.
type IngestReport struct {
	FilesIngested int           `json:"files_ingested"`
	ChunksIndexed int           `json:"chunks_indexed"`
	Failures      []FileFailure `json:"failures,omitempty"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// Stats describes the current state of the collection.
type Stats struct {
	Collection string   `json:"collection"`
	ChunkCount int      `json:"chunk_count"`
	Sources    []string `json:"sources"`
	Dimension  int      `json:"embedding_dimension"`
}

// Service is the application core shared by every front end.
type Service struct {
	cfg       *config.Config
	loaders   *loader.Registry
	splitter  *chunker.Chunker
	embedder  capability.Embedder
	generator capability.Generator
	index     *vecindex.Index
	retriever *retriever.Retriever
	analyzer  *analyzer.Analyzer
	renderer  *docgen.Renderer

	writeLock writeLock
	upsertMu  sync.Mutex
	workers   int
}

// New opens the collection and assembles the pipelines. generator may
// be nil; question answering then reports a capability error while
// ingestion and structural documentation keep working.
func New(cfg *config.Config, embedder capability.Embedder, generator capability.Generator) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	splitter, err := chunker.New(cfg.Chunking.MaxChunkTokens, cfg.Chunking.OverlapTokens)
	if err != nil {
		return nil, err
	}

	index, err := vecindex.Open(cfg.DataDir, cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	// A damaged index is recoverable: drop it and require re-ingestion
	// rather than serving inconsistent results.
	if err := index.Verify(context.Background()); err != nil {
		if !errors.Is(err, types.ErrIndexInconsistent) {
			_ = index.Close()
			return nil, err
		}
		log.Printf("index for collection %q is inconsistent, resetting; re-ingest source documents", cfg.Collection)
		if resetErr := index.Reset(context.Background()); resetErr != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to reset inconsistent index: %w", resetErr)
		}
	}

	ret := retriever.New(index, embedder, retriever.Options{
		K:                  cfg.Retrieval.K,
		MinSimilarity:      cfg.Retrieval.MinSimilarity,
		ContextTokenBudget: cfg.Retrieval.ContextTokenBudget,
		HighConfidence:     cfg.Retrieval.HighConfidence,
		MediumConfidence:   cfg.Retrieval.MediumConfidence,
		CacheTTL:           queryCacheTTL,
	})

	return &Service{
		cfg:       cfg,
		loaders:   loader.NewRegistry(),
		splitter:  splitter,
		embedder:  embedder,
		generator: generator,
		index:     index,
		retriever: ret,
		analyzer:  analyzer.New(),
		renderer:  docgen.New(),
		workers:   defaultWorkers,
	}, nil
}

// Close releases the index.
func (s *Service) Close() error {
	return s.index.Close()
}

// IngestFiles loads, chunks, embeds, and indexes a batch of files.
// Files are processed concurrently; index writes are serialized. Errors
// are collected per file so one bad upload never sinks the batch.
func (s *Service) IngestFiles(ctx context.Context, files []FileInput) (*IngestReport, error) {
	if !s.writeLock.TryAcquire() {
		return nil, ErrIngestInProgress
	}
	defer s.writeLock.Release()

	report := &IngestReport{}
	var (
		chunksIndexed atomic.Int32
		filesIngested atomic.Int32
		mu            sync.Mutex // protects report.Failures and report.Warnings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, file := range files {
		g.Go(func() error {
			n, err := s.ingestFile(gctx, file)
			if err != nil {
				if errors.Is(err, types.ErrEmptyDocument) {
					mu.Lock()
					report.Warnings = append(report.Warnings,
						fmt.Sprintf("%s: no extractable text, skipped", file.Name))
					mu.Unlock()
					return nil
				}
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				report.Failures = append(report.Failures, FileFailure{
					Name:  file.Name,
					Error: err.Error(),
				})
				mu.Unlock()
				return nil
			}
			filesIngested.Add(1)
			chunksIndexed.Add(int32(n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.FilesIngested = int(filesIngested.Load())
	report.ChunksIndexed = int(chunksIndexed.Load())

	if report.ChunksIndexed > 0 {
		s.retriever.FlushCache()
	}
	return report, nil
}

// ingestFile runs the pipeline for one file and returns the number of
// chunks indexed.
func (s *Service) ingestFile(ctx context.Context, file FileInput) (int, error) {
	format, err := loader.FormatForFile(file.Name)
	if err != nil {
		return 0, err
	}

	doc, err := s.loaders.Load(ctx, file.Name, file.Data, format)
	if err != nil {
		return 0, err
	}

	chunks, err := s.splitter.Chunk(doc)
	if err != nil {
		return 0, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedTexts(ctx, file.Name, texts)
	if err != nil {
		return 0, err
	}

	entries := make([]vecindex.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = vecindex.Entry{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			SourceName: c.SourceName,
			Sequence:   c.Sequence,
			Text:       c.Text,
			Vector:     vectors[i],
		}
	}

	s.upsertMu.Lock()
	defer s.upsertMu.Unlock()
	if err := s.index.Upsert(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// embedTexts embeds in sub-batches so large documents stay under the
// provider's per-call batch limit.
func (s *Service) embedTexts(ctx context.Context, name string, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += capability.DefaultBatchSize {
		end := start + capability.DefaultBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: embedding %s: %v", types.ErrCapability, name, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// Ask answers a question from the indexed documentation. When nothing
// relevant is found the returned Answer carries the NoContext signal
// and the generation capability is never invoked.
func (s *Service) Ask(ctx context.Context, question string) (*types.Answer, error) {
	retrieval, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		if errors.Is(err, types.ErrNoRelevantContext) {
			return &types.Answer{
				Text:       noContextAnswer,
				Confidence: types.ConfidenceNone,
				NoContext:  true,
			}, nil
		}
		return nil, err
	}

	if s.generator == nil {
		return nil, fmt.Errorf("%w: no generation capability configured", types.ErrCapability)
	}

	text, err := s.generator.GenerateAnswer(ctx, retrieval.Context, question, capability.GenerateOptions{
		Temperature: s.cfg.Generation.Temperature,
		MaxTokens:   s.cfg.Generation.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: answer generation: %v", types.ErrCapability, err)
	}

	sources := make([]types.Source, 0, len(retrieval.Results))
	for _, res := range retrieval.Results {
		sources = append(sources, types.Source{
			SourceName: res.SourceName,
			Sequence:   res.Sequence,
			Similarity: res.Similarity,
		})
	}

	return &types.Answer{
		Text:       text,
		Sources:    sources,
		Confidence: retrieval.Confidence,
	}, nil
}

// GenerateDocs analyzes one source file and renders its structural
// documentation. withSummaries asks the generation capability for
// per-symbol summaries when it is configured; its absence or failure
// degrades to signature-only output.
func (s *Service) GenerateDocs(ctx context.Context, sourceName string, code []byte, languageHint string, withSummaries bool) (*types.RenderedDocument, *types.SymbolTable, error) {
	if len(code) == 0 {
		return nil, nil, types.ErrEmptyDocument
	}
	if len(code) > s.cfg.MaxCodeLength {
		return nil, nil, fmt.Errorf("%w: %d bytes exceeds limit of %d",
			types.ErrInputTooLarge, len(code), s.cfg.MaxCodeLength)
	}

	table := s.analyzer.Analyze(string(code), sourceName, languageHint)

	opts := docgen.Options{}
	if withSummaries && s.generator != nil {
		opts.Generator = s.generator
	}
	doc := s.renderer.Render(ctx, table, opts)
	return doc, table, nil
}

// Stats reports the current collection state.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := s.index.Sources(ctx)
	if err != nil {
		return nil, err
	}
	dim, err := s.index.Dimension(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Collection: s.cfg.Collection,
		ChunkCount: count,
		Sources:    sources,
		Dimension:  dim,
	}, nil
}

// ResetCollection removes every indexed entry. Source files are not
// touched; the collection can be rebuilt by re-ingesting them.
func (s *Service) ResetCollection(ctx context.Context) error {
	if !s.writeLock.TryAcquire() {
		return ErrIngestInProgress
	}
	defer s.writeLock.Release()

	if err := s.index.Reset(ctx); err != nil {
		return err
	}
	s.retriever.FlushCache()
	return nil
}

// SuggestedQuestions proposes starter questions based on what has been
// indexed. The list is deterministic for a given set of sources.
func (s *Service) SuggestedQuestions(ctx context.Context) ([]string, error) {
	sources, err := s.index.Sources(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, nil
	}

	questions := []string{
		"How do I authenticate with this API?",
		"What endpoints are available?",
		"What error codes can be returned?",
	}
	sorted := append([]string(nil), sources...)
	sort.Strings(sorted)
	for _, src := range sorted {
		questions = append(questions, fmt.Sprintf("What does %s cover?", src))
		if len(questions) >= 6 {
			break
		}
	}
	return questions, nil
}
