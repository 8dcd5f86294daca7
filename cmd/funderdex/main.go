package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/config"
	"github.com/kailas-cloud/funderdex/internal/db"
	"github.com/kailas-cloud/funderdex/internal/db/driver"
	"github.com/kailas-cloud/funderdex/internal/domain"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/funderdex/internal/logger"
	"github.com/kailas-cloud/funderdex/internal/metrics"
	"github.com/kailas-cloud/funderdex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/funderdex/internal/repository/search"
	chiTransport "github.com/kailas-cloud/funderdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/funderdex/internal/transport/openai"
	"github.com/kailas-cloud/funderdex/internal/transport/propublica"
	embeddinguc "github.com/kailas-cloud/funderdex/internal/usecase/embedding"
	enrichmentuc "github.com/kailas-cloud/funderdex/internal/usecase/enrichment"
	healthuc "github.com/kailas-cloud/funderdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/funderdex/internal/usecase/search"
	"github.com/kailas-cloud/funderdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting funderdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("semantic", cfg.Embedding.Enabled),
	)

	// Register metrics explicitly
	metrics.RegisterSearchMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()
	engine, kv, err := driver.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open search engine", zap.Error(err))
	}
	defer engine.Close()
	logger.Info("Connected to search engine")

	// Validated by config.Load.
	catalog, _ := cfg.Search.Catalog()
	boosts, _ := cfg.Search.BoostTable()
	logger.Debug("Field boosts", zap.Stringer("boosts", boosts))

	searchRepo := searchrepo.New(engine,
		searchrepo.WithRadius(cfg.Embedding.Radius),
		searchrepo.WithBackendDuration(metrics.SearchBackendDuration),
	)

	searchOpts := []searchuc.Option{
		searchuc.WithMaxResults(cfg.Search.MaxResults),
		searchuc.WithScoreScaling(*cfg.Search.ScaleScores),
		searchuc.WithMetrics(metrics.SearchRequestsTotal, metrics.SearchResultsDroppedTotal),
	}

	// Pass nil interface (not typed nil pointer!) when semantic mode is off.
	var embChecker healthuc.EmbeddingChecker
	if cfg.Embedding.Enabled {
		queryEmbedder := buildEmbedder(cfg.Embedding, kv, logger)
		searchOpts = append(searchOpts, searchuc.WithEmbedder(queryEmbedder))
		embChecker = newEmbeddingHealthChecker(queryEmbedder)
		logger.Info("Query embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	searchSvc := searchuc.New(searchRepo, query.NewSelector(boosts, catalog), cfg.Search.Policy(), searchOpts...)

	registry := propublica.New(propublica.Config{
		BaseURL:                 cfg.Enrichment.BaseURL,
		Timeout:                 time.Duration(cfg.Enrichment.TimeoutSec) * time.Second,
		RatePerSecond:           cfg.Enrichment.RatePerSecond,
		Burst:                   cfg.Enrichment.Burst,
		BreakerMinRequests:      cfg.Enrichment.BreakerMinRequests,
		BreakerFailureRatio:     cfg.Enrichment.BreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(cfg.Enrichment.BreakerOpenSec) * time.Second,
		BreakerHalfOpenMaxCalls: cfg.Enrichment.BreakerHalfOpenCalls,
		Logger:                  logger,
	})
	enrichSvc := enrichmentuc.New(registry)

	healthOpts := []healthuc.Option{healthuc.WithRegistry(registry)}
	if embChecker != nil {
		healthOpts = append(healthOpts, healthuc.WithEmbedding(embChecker))
	}
	healthSvc := healthuc.New(engine, healthOpts...)

	server := chiTransport.NewServer(searchSvc, enrichSvc, healthSvc, cfg.Taxonomy.Taxonomy(), logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r, cfg.HTTP.BasePath)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr), zap.String("base_path", cfg.HTTP.BasePath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if err := domain.CheckHealth(ctx, h.embedder); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

// buildEmbedder assembles the query decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func buildEmbedder(cfg config.EmbeddingConfig, kv db.KVStore, logger *zap.Logger) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		Model:         cfg.Model,
		Dimensions:    cfg.Dimensions,
		Provider:      cfg.Provider,
		MaxInputChars: cfg.MaxInputChars,
		Logger:        logger,
	})

	// Cached
	var embedder domain.Embedder = base
	if kv != nil {
		embedder = embcache.New(base, kv, embcache.Config{
			TTL:        cfg.CacheTTL(),
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			CacheTotal: metrics.EmbeddingCacheTotal,
		}, logger)
	}

	// Instrumented (call counts + vector validation)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embeddinguc.Config{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Purpose:    embeddinguc.PurposeQuery,
	}, logger)

	// Instruction prefix (outermost: cache key includes instruction)
	if cfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}

	return embedder
}
