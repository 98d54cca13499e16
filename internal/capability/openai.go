package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider defaults.
const (
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultChatModel      = "gpt-4o-mini"
	OpenAIDimension       = 1536

	DefaultBatchSize = 50
	MaxBatchSize     = 100
)

// OpenAIConfig configures the OpenAI-compatible provider.
type OpenAIConfig struct {
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	Timeout        time.Duration
	Dimension      int
}

// OpenAIProvider implements Embedder and Generator against any
// OpenAI-compatible HTTP API.
type OpenAIProvider struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	cache      *Cache
}

// Ensure the provider satisfies both capability contracts.
var (
	_ Embedder  = (*OpenAIProvider)(nil)
	_ Generator = (*OpenAIProvider)(nil)
)

// NewOpenAIProvider creates a provider. The cache may be nil to disable
// embedding caching.
func NewOpenAIProvider(cfg OpenAIConfig, cache *Cache) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = OpenAIDimension
	}

	return &OpenAIProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
	}, nil
}

// Dimension returns the embedding dimension.
func (p *OpenAIProvider) Dimension() int {
	return p.cfg.Dimension
}

// Close releases provider resources.
func (p *OpenAIProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// EmbedText generates a single embedding, consulting the cache first.
func (p *OpenAIProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if p.cache != nil {
		if vec, ok := p.cache.Get(hash); ok {
			return vec, nil
		}
	}

	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving order.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts per batch", ErrInvalidInput, MaxBatchSize)
	}
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("%w: text at index %d is empty", ErrEmptyText, i)
		}
	}

	config := DefaultRetryConfig()
	vecs, err := retryWithBackoff(ctx, config, func() ([][]float32, error) {
		return p.callEmbeddings(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, config.MaxRetries, err)
	}

	if p.cache != nil {
		for i, vec := range vecs {
			p.cache.Set(ComputeHash(texts[i]), vec)
		}
	}

	return vecs, nil
}

// GenerateAnswer answers a question from assembled context.
func (p *OpenAIProvider) GenerateAnswer(ctx context.Context, contextText, question string, opts GenerateOptions) (string, error) {
	if question == "" {
		return "", ErrEmptyText
	}

	system := "You are an API documentation assistant. Answer the question using only the provided context. " +
		"If the context does not contain the answer, say so explicitly."
	user := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)

	return p.chat(ctx, system, user, opts)
}

// SummarizeSymbol produces a one-paragraph summary of a code symbol.
func (p *OpenAIProvider) SummarizeSymbol(ctx context.Context, signature, docComment string) (string, error) {
	if signature == "" {
		return "", ErrEmptyText
	}

	system := "You write concise, one-paragraph technical summaries of code symbols for reference documentation."
	user := fmt.Sprintf("Signature:\n%s\n\nExisting comment:\n%s", signature, docComment)

	return p.chat(ctx, system, user, GenerateOptions{Temperature: 0.3, MaxTokens: 200})
}

func (p *OpenAIProvider) chat(ctx context.Context, system, user string, opts GenerateOptions) (string, error) {
	config := DefaultRetryConfig()
	answer, err := retryWithBackoff(ctx, config, func() (string, error) {
		return p.callChat(ctx, system, user, opts)
	})
	if err != nil {
		return "", fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, config.MaxRetries, err)
	}
	return answer, nil
}

// callEmbeddings performs one embeddings API request.
func (p *OpenAIProvider) callEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"model": p.cfg.EmbeddingModel,
		"input": texts,
	}

	var response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := p.post(ctx, "/embeddings", reqBody, &response); err != nil {
		return nil, err
	}

	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(response.Data))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range response.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	for i, v := range vecs {
		if len(v) != p.cfg.Dimension {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), p.cfg.Dimension)
		}
	}
	return vecs, nil
}

// callChat performs one chat completions API request.
func (p *OpenAIProvider) callChat(ctx context.Context, system, user string, opts GenerateOptions) (string, error) {
	reqBody := map[string]interface{}{
		"model": p.cfg.ChatModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	if opts.Temperature > 0 {
		reqBody["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		reqBody["max_tokens"] = opts.MaxTokens
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := p.post(ctx, "/chat/completions", reqBody, &response); err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return response.Choices[0].Message.Content, nil
}

// post sends a JSON request and decodes the JSON response.
func (p *OpenAIProvider) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
