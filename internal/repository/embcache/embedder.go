package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "emb_cache:"

// DefaultTTL bounds how long a query embedding stays cached.
const DefaultTTL = 24 * time.Hour

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config tunes the cache.
type Config struct {
	// TTL <= 0 means DefaultTTL.
	TTL time.Duration
	// Model and Dimensions namespace the keys so a model switch never
	// serves vectors of the previous one.
	Model      string
	Dimensions int
	// CacheTotal, if set, counts lookups with label result=hit|miss.
	CacheTotal *prometheus.CounterVec
}

// CachedEmbedder caches semantic-search query vectors in a key-value store.
// Queries are keyed after case folding and whitespace collapsing, so
// "Youth  Arts" and "youth arts" share an entry.
type CachedEmbedder struct {
	inner  domain.Embedder
	store  store
	cfg    Config
	ns     string
	logger *zap.Logger
}

// New wraps inner with a cache backed by s.
func New(inner domain.Embedder, s store, cfg Config, logger *zap.Logger) *CachedEmbedder {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	ns := keyPrefix
	if cfg.Model != "" {
		ns += cfg.Model + ":" + strconv.Itoa(cfg.Dimensions) + ":"
	}
	return &CachedEmbedder{inner: inner, store: s, cfg: cfg, ns: ns, logger: logger}
}

// Embed returns the cached vector or calls the inner embedder and caches the result.
// Hits report zero tokens. Cache failures are logged and never fail the call.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.lookup(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	if err := c.store.SetWithTTL(ctx, key, encodeVector(result.Embedding), c.cfg.TTL); err != nil {
		c.logger.Warn("Failed to cache query embedding", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	return domain.CheckHealth(ctx, c.inner)
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(normalize(text)))
	return c.ns + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Failed to read cached query embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decodeVector(data)
	if err == nil && c.cfg.Dimensions > 0 && len(vec) != c.cfg.Dimensions {
		err = fmt.Errorf("cached vector has %d dimensions, want %d", len(vec), c.cfg.Dimensions)
	}
	if err != nil {
		c.logger.Warn("Discarding cached query embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) count(result string) {
	if c.cfg.CacheTotal != nil {
		c.cfg.CacheTotal.WithLabelValues(result).Inc()
	}
}

func normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// encodeVector packs float32 values little-endian, 4 bytes each.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid cached vector: %d bytes", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}
