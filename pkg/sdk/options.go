package funderdex

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverRedis = "redis"
	driverBleve = "bleve"
)

type clientConfig struct {
	driver   string // "redis" or "bleve"
	addrs    []string
	password string
	bleveDir string

	embedder Embedder

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int
	radius           float64

	maxResults         int
	scaleScores        bool
	boosts             map[string]float64
	suppressed         []string
	requireCategorized bool

	registryURL    string
	registryClient *http.Client

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		vectorDimensions:   1536,
		scaleScores:        true,
		suppressed:         []string{"Celebrity"},
		requireCategorized: true,
	}
}

// WithRedis configures the client to connect to a Redis instance with search modules.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithBleve keeps the indexes in a local bleve store under dir.
// An empty dir keeps everything in memory. Semantic search is not available.
func WithBleve(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverBleve
		c.addrs = nil
		c.bleveDir = dir
	})
}

// WithEmbedder sets the text embedding provider.
// Required for semantic search; keyword search works without it.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorDimensions sets the vector size of semantic collection indexes.
// Defaults to 1536 (text-embedding-3-small).
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithRadius sets the cosine distance cutoff for semantic search. Default: 0.6.
func WithRadius(r float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.radius = r
	})
}

// WithMaxResults caps the number of funders returned per search. Default: 200.
func WithMaxResults(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxResults = n
	})
}

// WithScoreScaling toggles rescaling keyword scores to the 0..1 range. Default: on.
func WithScoreScaling(on bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.scaleScores = on
	})
}

// WithBoosts overrides keyword field weights, keyed like "funderName.exact".
func WithBoosts(boosts map[string]float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.boosts = boosts
	})
}

// WithSuppressedIssueAreas replaces the issue areas whose funders are hidden
// when they carry no other issue area. Default: Celebrity.
func WithSuppressedIssueAreas(tags ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.suppressed = tags
	})
}

// WithRequireCategorized toggles dropping funders without any issue area. Default: on.
func WithRequireCategorized(on bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.requireCategorized = on
	})
}

// WithRegistry points nonprofit lookups at a ProPublica-compatible API.
// A nil client uses the default HTTP client.
func WithRegistry(baseURL string, hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.registryURL = baseURL
		c.registryClient = hc
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations and
// result sizes) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
