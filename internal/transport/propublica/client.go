package propublica

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/metrics"
	"github.com/kailas-cloud/funderdex/internal/version"
)

// DefaultBaseURL is the Nonprofit Explorer API v2 root.
const DefaultBaseURL = "https://projects.propublica.org/nonprofits/api/v2"

// Registry operations, used as metric labels.
const (
	OpSearch       = "search"
	OpOrganization = "organization"
)

const maxBodySize = 4 << 20

// Config holds the registry client settings. Zero values take defaults.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int

	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32

	HTTPClient *http.Client
	Logger     *zap.Logger
}

func (c Config) normalize() Config {
	out := c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	out.BaseURL = strings.TrimRight(out.BaseURL, "/")
	if out.Timeout <= 0 {
		out.Timeout = 10 * time.Second
	}
	if out.RatePerSecond <= 0 {
		out.RatePerSecond = 5
	}
	if out.Burst <= 0 {
		out.Burst = 10
	}
	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = 10
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = 0.5
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = 30 * time.Second
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = 2
	}
	if out.HTTPClient == nil {
		out.HTTPClient = &http.Client{Timeout: out.Timeout}
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}

// StatusError is a non-2xx registry response.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("registry %s status: %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("registry %s status: %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Client is the ProPublica Nonprofit Explorer client. It never retries:
// failures surface immediately and a breaker sheds load while the registry is down.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

// New creates a registry client.
func New(cfg Config) *Client {
	cfg = cfg.normalize()
	c := &Client{
		baseURL: cfg.BaseURL,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:  cfg.Logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "propublica",
		MaxRequests: cfg.BreakerHalfOpenMaxCalls,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !recordsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// Available reports whether the breaker lets lookups through. It makes no request.
func (c *Client) Available() bool {
	return c.breaker.State() != gobreaker.StateOpen
}

// get fetches path and returns the body of a 2xx response.
// Errors match domain.ErrNotFound or domain.ErrUpstreamUnavailable.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	start := time.Now()
	body, err := c.fetch(ctx, op, path, query)
	metrics.RegistryRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.RegistryRequestsTotal.WithLabelValues(op, statusLabel(err)).Inc()
	if err != nil {
		return nil, classify(op, err)
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("registry %s rate limit: %w", op, err)
	}
	return c.breaker.Execute(func() ([]byte, error) { //nolint:wrapcheck // classified by caller
		return c.do(ctx, op, path, query)
	})
}

func (c *Client) do(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry %s request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 256 {
			msg = msg[:256]
		}
		return nil, &StatusError{Operation: op, StatusCode: resp.StatusCode, Body: msg}
	}
	return body, nil
}

// recordsFailure reports whether err counts against the breaker.
// Not-found answers and caller cancellations say nothing about registry health.
func recordsFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func isNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

func isOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func classify(op string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("registry %s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("registry %s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isNotFound(err):
		return "not_found"
	case isOpen(err):
		return "breaker_open"
	default:
		return "error"
	}
}
