package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
	"github.com/kailas-cloud/funderdex/internal/domain/search/request"
	"github.com/kailas-cloud/funderdex/internal/domain/search/result"
	"github.com/kailas-cloud/funderdex/internal/logger"
)

// DefaultMaxResults caps the number of hits requested from the backend.
const DefaultMaxResults = 200

// Outcome labels for the requests counter.
const (
	OutcomeOK             = "ok"
	OutcomeEmptyQuery     = "empty_query"
	OutcomeInvalid        = "invalid"
	OutcomeBackendError   = "backend_error"
	OutcomeEmbeddingError = "embedding_error"
)

// Service orchestrates a funder search: resolve, search, normalize, order, post-filter.
type Service struct {
	repo     Repository
	resolver Resolver
	filter   PostFilter
	embed    Embedder

	maxResults  int
	scaleScores bool

	requestsTotal *prometheus.CounterVec
	droppedTotal  *prometheus.CounterVec
}

// Option configures a Service.
type Option func(*Service)

// WithEmbedder enables semantic mode.
func WithEmbedder(e Embedder) Option {
	return func(s *Service) { s.embed = e }
}

// WithMaxResults overrides DefaultMaxResults.
func WithMaxResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithScoreScaling exposes relevance on a 0-100 scale relative to the top hit.
func WithScoreScaling(on bool) Option {
	return func(s *Service) { s.scaleScores = on }
}

// WithMetrics records request outcomes (labels mode, match, outcome)
// and post-filter drops (label reason).
func WithMetrics(requests, dropped *prometheus.CounterVec) Option {
	return func(s *Service) {
		s.requestsTotal = requests
		s.droppedTotal = dropped
	}
}

// New creates a search service.
func New(repo Repository, resolver Resolver, pf PostFilter, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		resolver:   resolver,
		filter:     pf,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Semantic runs a semantic search built from raw inputs. Neither text nor
// filters is not an error here: the result is empty and the backend is not called.
func (s *Service) Semantic(ctx context.Context, text string, filters filter.Filters) ([]result.Funder, error) {
	req, err := request.New(text, filters, mode.Semantic, "", false)
	if errors.Is(err, domain.ErrEmptyQuery) {
		return []result.Funder{}, nil
	}
	if err != nil {
		s.record(mode.Semantic, "", OutcomeInvalid)
		return nil, err
	}
	return s.Search(ctx, req)
}

// Search executes a validated request and returns the normalized, post-filtered results.
func (s *Service) Search(ctx context.Context, req request.Request) ([]result.Funder, error) {
	results, err := s.search(ctx, req)
	s.record(req.Mode(), req.Match(), outcome(err))
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) search(ctx context.Context, req request.Request) ([]result.Funder, error) {
	resolved, err := s.resolver.Resolve(req)
	if err != nil {
		return nil, fmt.Errorf("resolve query: %w", err)
	}
	ctx = logger.With(ctx,
		zap.String("collection", string(resolved.Collection.ID())),
		zap.Stringer("match", resolved.Match.Kind),
	)

	var vector []float32
	if resolved.Match.Kind == query.MatchSemantic {
		vector, err = s.vectorize(ctx, resolved)
		if err != nil {
			return nil, err
		}
	}

	hits, err := s.repo.Search(ctx, resolved, vector, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("search funders: %w", err)
	}

	results := result.Normalize(hits, resolved.Mode)
	if resolved.IsBrowse() {
		result.SortByName(results)
	}

	results, dropped := s.filter.Apply(results)
	for reason, n := range dropped {
		if s.droppedTotal != nil {
			s.droppedTotal.WithLabelValues(string(reason)).Add(float64(n))
		}
	}

	if s.scaleScores && !resolved.IsBrowse() {
		result.ScaleScores(results)
	}

	logger.FromContext(ctx).Debug("search completed",
		zap.Int("hits", len(hits)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

func (s *Service) vectorize(ctx context.Context, q query.Resolved) ([]float32, error) {
	if s.embed == nil {
		return nil, domain.NewBackendError(string(q.Collection.ID()), domain.ErrSemanticSearchNotSupported)
	}
	emb, err := s.embed.Embed(ctx, q.Match.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: vectorize query: %w", domain.ErrEmbeddingProviderError, err)
	}
	return emb.Embedding, nil
}

func (s *Service) record(m mode.Mode, match mode.MatchPolicy, out string) {
	if s.requestsTotal == nil {
		return
	}
	if m == mode.Semantic {
		match = ""
	}
	s.requestsTotal.WithLabelValues(string(m), string(match), out).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrEmptyQuery):
		return OutcomeEmptyQuery
	case errors.Is(err, domain.ErrInvalidRequest):
		return OutcomeInvalid
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return OutcomeEmbeddingError
	default:
		return OutcomeBackendError
	}
}
