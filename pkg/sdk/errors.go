package funderdex

import "github.com/kailas-cloud/funderdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyQuery                 = domain.ErrEmptyQuery
	ErrInvalidRequest             = domain.ErrInvalidRequest
	ErrBackendUnavailable         = domain.ErrBackendUnavailable
	ErrSemanticSearchNotSupported = domain.ErrSemanticSearchNotSupported
	ErrEmbeddingProviderError     = domain.ErrEmbeddingProviderError
	ErrNotFound                   = domain.ErrNotFound
	ErrUpstreamUnavailable        = domain.ErrUpstreamUnavailable
)
