package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/logger"
	healthuc "github.com/kailas-cloud/funderdex/internal/usecase/health"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Error codes in ErrorResponse.Code.
const (
	CodeBadRequest             = "bad_request"
	CodeEmptyQuery             = "empty_query"
	CodeInvalidRequest         = "invalid_request"
	CodeUnauthorized           = "unauthorized"
	CodeNotFound               = "not_found"
	CodeBackendUnavailable     = "backend_unavailable"
	CodeEmbeddingProviderError = "embedding_provider_error"
	CodeUpstreamUnavailable    = "upstream_unavailable"
	CodeInternalError          = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the funder search API.
type Server struct {
	search        Searcher
	enrich        Enricher
	health        HealthChecker
	taxonomy      filter.Taxonomy
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	enrich Enricher,
	health HealthChecker,
	taxonomy filter.Taxonomy,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:   search,
		enrich:   enrich,
		health:   health,
		taxonomy: taxonomy,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeEmptyQuery),
		invalidRequestHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusInternalServerError, CodeUpstreamUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusInternalServerError, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusInternalServerError, CodeBackendUnavailable),
	}
	return s
}

// Routes registers the API under basePath, plus /health and /metrics at the root.
func (s *Server) Routes(r chi.Router, basePath string) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	api := func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/search/semantic", s.SemanticSearch)
		r.Get("/nonprofit-data/{query}", s.GetNonprofit)
		r.Get("/facets", s.GetFacets)
	}
	if basePath == "" || basePath == "/" {
		r.Group(api)
		return
	}
	r.Route(basePath, api)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health. A degraded report still answers 200:
// keyword search works without the embedding provider.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

type tagResponse struct {
	Tag  string `json:"tag"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

type facetsResponse struct {
	IssueAreas []tagResponse `json:"issueAreas"`
	Locations  []tagResponse `json:"locations"`
}

// GetFacets handles GET /facets.
func (s *Server) GetFacets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, facetsResponse{
		IssueAreas: tagsToResponse(s.taxonomy.IssueAreas()),
		Locations:  tagsToResponse(s.taxonomy.Locations()),
	})
}

func tagsToResponse(tags []filter.Tag) []tagResponse {
	out := make([]tagResponse, len(tags))
	for i, t := range tags {
		out[i] = tagResponse{Tag: t.Value, Name: t.Name, URL: t.URL}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// decodeBody reads a size-limited JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return false
	}
	return true
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidRequest,
		domain.ErrNotFound,
		domain.ErrUpstreamUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrBackendUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidRequestHandler echoes the validation message: it describes client input only.
func invalidRequestHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(logger.FromContextOr(r.Context(), s.logger), err)

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// logError logs client errors at debug, enrichment misses at warn and backend failures at error.
func (s *Server) logError(log *zap.Logger, err error) {
	var be *domain.BackendError
	switch {
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrInvalidRequest):
		log.Debug("request rejected", zap.Error(err))
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUpstreamUnavailable):
		log.Warn("enrichment failed", zap.Error(err))
	case errors.As(err, &be):
		log.Error("search backend failed", zap.String("collection", be.Collection), zap.Error(err))
	default:
		log.Error("request failed", zap.Error(err))
	}
}
