package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/funderdex/internal/domain/collection"
	"github.com/kailas-cloud/funderdex/internal/domain/search/filter"
	"github.com/kailas-cloud/funderdex/internal/domain/search/mode"
	"github.com/kailas-cloud/funderdex/internal/domain/search/policy"
	"github.com/kailas-cloud/funderdex/internal/domain/search/query"
)

// Database drivers.
const (
	DriverRedis = "redis"
	DriverBleve = "bleve"
)

// Config holds the funderdex configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
	Database   DatabaseConfig   `yaml:"database"`
	Search     SearchConfig     `yaml:"search"`
	Taxonomy   TaxonomyConfig   `yaml:"taxonomy"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int    `yaml:"port"`
	BasePath        string `yaml:"base_path"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds document-search engine settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, bleve (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	BleveDir         string   `yaml:"bleve_dir"` // empty keeps bleve indexes in memory
}

// CollectionConfig describes one logical collection.
type CollectionConfig struct {
	ID            string `yaml:"id"`
	Mode          string `yaml:"mode"`
	Places        bool   `yaml:"places"`
	Index         string `yaml:"index"`
	LocationField string `yaml:"location_field"`
}

// SearchConfig holds query assembly and result policy settings.
type SearchConfig struct {
	MaxResults         int                `yaml:"max_results"`
	ScaleScores        *bool              `yaml:"scale_scores"`
	Boosts             map[string]float64 `yaml:"boosts"`
	Collections        []CollectionConfig `yaml:"collections"`
	Suppressed         []string           `yaml:"suppressed_issue_areas"`
	RequireCategorized *bool              `yaml:"require_categorized"`
}

// TagConfig is one taxonomy tag.
type TagConfig struct {
	Tag  string `yaml:"tag"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// TaxonomyConfig lists the accepted facet tags. An empty facet accepts any tag.
type TaxonomyConfig struct {
	IssueAreas []TagConfig `yaml:"issue_areas"`
	Locations  []TagConfig `yaml:"locations"`
}

// EmbeddingConfig holds the query embedding provider settings.
type EmbeddingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	Provider         string  `yaml:"provider"`
	APIKey           string  `yaml:"api_key"`
	BaseURL          string  `yaml:"base_url"`
	Model            string  `yaml:"model"`
	Dimensions       int     `yaml:"dimensions"`
	QueryInstruction string  `yaml:"query_instruction"`
	CacheTTLSec      int     `yaml:"cache_ttl_sec"`
	Radius           float64 `yaml:"radius"`
	MaxInputChars    int     `yaml:"max_input_chars"`
	HNSWM            int     `yaml:"hnsw_m"`
	HNSWEFConstruct  int     `yaml:"hnsw_ef_construction"`
}

// EnrichmentConfig holds the nonprofit registry client settings.
type EnrichmentConfig struct {
	BaseURL              string  `yaml:"base_url"`
	TimeoutSec           int     `yaml:"timeout_sec"`
	RatePerSecond        float64 `yaml:"rate_per_second"`
	Burst                int     `yaml:"burst"`
	BreakerMinRequests   uint32  `yaml:"breaker_min_requests"`
	BreakerFailureRatio  float64 `yaml:"breaker_failure_ratio"`
	BreakerOpenSec       int     `yaml:"breaker_open_sec"`
	BreakerHalfOpenCalls uint32  `yaml:"breaker_half_open_calls"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.BasePath == "" {
		c.HTTP.BasePath = "/api"
	}
	c.HTTP.BasePath = "/" + strings.Trim(c.HTTP.BasePath, "/")
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 200
	}
	if c.Search.ScaleScores == nil {
		c.Search.ScaleScores = boolPtr(true)
	}
	if c.Search.Suppressed == nil {
		c.Search.Suppressed = append([]string(nil), policy.DefaultSuppressed...)
	}
	if c.Search.RequireCategorized == nil {
		c.Search.RequireCategorized = boolPtr(true)
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 24 * 60 * 60
	}
	if c.Embedding.Radius <= 0 {
		c.Embedding.Radius = 0.6
	}
	if c.Embedding.HNSWM <= 0 {
		c.Embedding.HNSWM = 16
	}
	if c.Embedding.HNSWEFConstruct <= 0 {
		c.Embedding.HNSWEFConstruct = 200
	}
	if c.Enrichment.BaseURL == "" {
		c.Enrichment.BaseURL = "https://projects.propublica.org/nonprofits/api/v2"
	}
	if c.Enrichment.TimeoutSec <= 0 {
		c.Enrichment.TimeoutSec = 10
	}
	if c.Enrichment.RatePerSecond <= 0 {
		c.Enrichment.RatePerSecond = 5
	}
	if c.Enrichment.Burst <= 0 {
		c.Enrichment.Burst = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverBleve:
		if c.Embedding.Enabled {
			return fmt.Errorf("embedding.enabled requires database.driver %q", DriverRedis)
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverBleve, c.Database.Driver)
	}
	if _, err := c.Search.BoostTable(); err != nil {
		return fmt.Errorf("search.boosts: %w", err)
	}
	catalog, err := c.Search.Catalog()
	if err != nil {
		return fmt.Errorf("search.collections: %w", err)
	}
	if err := catalog.Complete(); err != nil {
		return fmt.Errorf("search.collections: %w", err)
	}
	if c.Embedding.Enabled {
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required when embedding is enabled")
		}
		if c.Embedding.Dimensions <= 0 {
			return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
		}
		if c.Embedding.Radius > 2 {
			return fmt.Errorf("embedding.radius must be at most 2 (cosine distance), got %g", c.Embedding.Radius)
		}
	}
	if r := c.Enrichment.BreakerFailureRatio; r < 0 || r > 1 {
		return fmt.Errorf("enrichment.breaker_failure_ratio must be between 0 and 1, got %g", r)
	}
	return nil
}

// BoostTable returns the default field weights with the configured overrides applied.
func (s SearchConfig) BoostTable() (query.BoostTable, error) {
	return query.NewBoostTable(s.Boosts) //nolint:wrapcheck // caller adds the section name
}

// Catalog builds the collection catalog; no configured collections means the defaults.
func (s SearchConfig) Catalog() (*collection.Catalog, error) {
	if len(s.Collections) == 0 {
		return collection.NewCatalog(collection.Defaults()...) //nolint:wrapcheck // caller adds the section name
	}
	cols := make([]collection.Collection, 0, len(s.Collections))
	for i, cc := range s.Collections {
		col, err := collection.New(collection.ID(cc.ID), mode.Mode(cc.Mode), cc.Places, cc.Index, cc.LocationField)
		if err != nil {
			return nil, fmt.Errorf("collection %d: %w", i, err)
		}
		cols = append(cols, col)
	}
	return collection.NewCatalog(cols...) //nolint:wrapcheck // caller adds the section name
}

// Policy builds the result post-filter.
func (s SearchConfig) Policy() *policy.Policy {
	return policy.New(s.Suppressed, s.RequireCategorized == nil || *s.RequireCategorized)
}

// Taxonomy builds the facet taxonomy.
func (t TaxonomyConfig) Taxonomy() filter.Taxonomy {
	return filter.NewTaxonomy(toTags(t.IssueAreas), toTags(t.Locations))
}

func toTags(in []TagConfig) []filter.Tag {
	out := make([]filter.Tag, 0, len(in))
	for _, t := range in {
		if strings.TrimSpace(t.Tag) == "" {
			continue
		}
		out = append(out, filter.Tag{Value: t.Tag, Name: t.Name, URL: t.URL})
	}
	return out
}

// CacheTTL returns the query embedding cache TTL.
func (e EmbeddingConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLSec) * time.Second
}

func boolPtr(b bool) *bool { return &b }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
