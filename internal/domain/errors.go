package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery signals a request with neither query text nor facet filters.
	ErrEmptyQuery = errors.New("query or filters required")
	// ErrInvalidRequest signals a malformed request (bad enum, oversized query).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrBackendUnavailable signals a document-search failure or a collection routing misconfiguration.
	ErrBackendUnavailable = errors.New("search backend unavailable")
	// ErrSemanticSearchNotSupported signals that the configured engine lacks vector search.
	ErrSemanticSearchNotSupported = errors.New("semantic search not supported by backend")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")

	// ErrNotFound signals that no registry organization matched at search or detail stage.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable signals a registry service failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// BackendError wraps ErrBackendUnavailable with the collection that failed.
// The collection is for server-side logs only and never reaches the client.
type BackendError struct {
	Collection string
	Err        error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: collection %s: %v", ErrBackendUnavailable.Error(), e.Collection, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *BackendError) Unwrap() []error { return []error{ErrBackendUnavailable, e.Err} }

// NewBackendError creates a BackendError.
func NewBackendError(collection string, err error) error {
	return &BackendError{Collection: collection, Err: err}
}
