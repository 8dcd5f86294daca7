package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/metrics"
)

// Purpose tells query vectorization (semantic search) from document
// vectorization (loading semantic collections).
type Purpose string

const (
	PurposeQuery    Purpose = "query"
	PurposeDocument Purpose = "document"
)

const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeRejected = "rejected"
)

// Config describes the wrapped provider and the vectors the indexes expect.
type Config struct {
	Provider string
	Model    string
	// Dimensions is the HNSW field size; <= 0 disables the size check.
	Dimensions int
	Purpose    Purpose
}

// InstrumentedEmbedder counts calls per purpose and rejects vectors
// the funder indexes cannot store. Provider-level metrics live in transport/openai.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	cfg    Config
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. An empty purpose is treated as query.
func NewInstrumentedEmbedder(inner domain.Embedder, cfg Config, logger *zap.Logger) *InstrumentedEmbedder {
	if cfg.Purpose == "" {
		cfg.Purpose = PurposeQuery
	}
	return &InstrumentedEmbedder{
		inner: inner,
		cfg:   cfg,
		logger: logger.With(
			zap.String("provider", cfg.Provider),
			zap.String("model", cfg.Model),
			zap.String("purpose", string(cfg.Purpose)),
		),
	}
}

// Embed vectorizes text. Every failure matches domain.ErrEmbeddingProviderError.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	elapsed := time.Since(start)

	if err != nil {
		p.count(outcomeError)
		p.logger.Error("Embedding failed", zap.Duration("duration", elapsed), zap.Error(err))
		if !errors.Is(err, domain.ErrEmbeddingProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed %s: %w", p.cfg.Purpose, err)
	}

	if err := p.validate(result.Embedding); err != nil {
		p.count(outcomeRejected)
		metrics.EmbeddingErrorsTotal.WithLabelValues(p.cfg.Provider, p.cfg.Model, "invalid_vector").Inc()
		p.logger.Error("Embedding rejected", zap.Error(err))
		return domain.EmbeddingResult{}, err
	}

	p.count(outcomeOK)
	p.logger.Debug("Embedding completed",
		zap.Duration("duration", elapsed),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	return domain.CheckHealth(ctx, p.inner)
}

func (p *InstrumentedEmbedder) count(outcome string) {
	metrics.EmbeddingCallsTotal.WithLabelValues(string(p.cfg.Purpose), outcome).Inc()
}

func (p *InstrumentedEmbedder) validate(vec []float32) error {
	switch {
	case len(vec) == 0:
		return fmt.Errorf("empty embedding vector: %w", domain.ErrEmbeddingProviderError)
	case p.cfg.Dimensions > 0 && len(vec) != p.cfg.Dimensions:
		return fmt.Errorf("embedding has %d dimensions, index expects %d: %w",
			len(vec), p.cfg.Dimensions, domain.ErrEmbeddingProviderError)
	}
	return nil
}
