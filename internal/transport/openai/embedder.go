package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/metrics"
)

// DefaultMaxInputChars bounds the text sent per request. Funder profiles can
// run long and the provider rejects oversized inputs outright.
const DefaultMaxInputChars = 8000

// Config holds the embedding provider settings.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimensions    int
	User          string
	Provider      string
	MaxInputChars int
	Logger        *zap.Logger
}

// Embedder calls an OpenAI-compatible /embeddings endpoint, one text per request.
type Embedder struct {
	client   *openai.Client
	req      openai.EmbeddingRequest
	provider string
	maxChars int
	logger   *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	e := &Embedder{
		client: openai.NewClientWithConfig(clientCfg),
		req: openai.EmbeddingRequest{
			Model:          openai.EmbeddingModel(cfg.Model),
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
			User:           cfg.User,
			Dimensions:     max(cfg.Dimensions, 0),
		},
		provider: cfg.Provider,
		maxChars: cfg.MaxInputChars,
		logger:   cfg.Logger,
	}
	if e.maxChars <= 0 {
		e.maxChars = DefaultMaxInputChars
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Embed vectorizes text after trimming it and cutting it to the input limit.
// Every error matches domain.ErrEmbeddingProviderError.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("empty input: %w", domain.ErrEmbeddingProviderError)
	}
	if cut, ok := truncate(text, e.maxChars); ok {
		e.logger.Debug("Embedding input truncated",
			zap.Int("bytes", len(text)),
			zap.Int("max_chars", e.maxChars),
		)
		text = cut
	}

	req := e.req
	req.Input = []string{text}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	metrics.EmbeddingRequestDuration.WithLabelValues(e.labels()...).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		e.fail(errorType(err))
		return domain.EmbeddingResult{}, parseAPIError(err)
	case len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0:
		e.fail("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.req.Model), "success").Inc()
	usage := resp.Usage
	if usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.req.Model), "prompt").Add(float64(usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.req.Model), "total").Add(float64(usage.TotalTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: usage.PromptTokens,
		TotalTokens:  usage.TotalTokens,
	}, nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Embedder) labels() []string {
	return []string{e.provider, string(e.req.Model)}
}

func (e *Embedder) fail(errType string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.req.Model), "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.req.Model), errType).Inc()
}

// truncate cuts s to at most n runes without splitting a rune.
func truncate(s string, n int) (string, bool) {
	if len(s) <= n {
		return s, false
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
