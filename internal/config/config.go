// Package config defines the top-level configuration for the snapshot
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ascendly/marketsnap/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MARKETSNAP_* environment
// variables.
type Config struct {
	Providers   ProvidersConfig   `toml:"providers"`
	Aggregation AggregationConfig `toml:"aggregation"`
	Redis       RedisConfig       `toml:"redis"`
	Postgres    PostgresConfig    `toml:"postgres"`
	S3          S3Config          `toml:"s3"`
	Server      ServerConfig      `toml:"server"`
	Once        OnceConfig        `toml:"once"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// ProvidersConfig holds credentials and endpoints for the two external data
// providers.
type ProvidersConfig struct {
	SerpBaseURL    string   `toml:"serp_base_url"`
	SerpAPIKey     string   `toml:"serp_api_key"`
	SerpTimeout    duration `toml:"serp_timeout"`
	CatalogBaseURL string   `toml:"catalog_base_url"`
	CatalogAPIKey  string   `toml:"catalog_api_key"`
	CatalogTimeout duration `toml:"catalog_timeout"`
}

// AggregationConfig holds pipeline tunables.
type AggregationConfig struct {
	// CallBudgetMax caps provider calls per request: the search call plus
	// catalog batches.
	CallBudgetMax int `toml:"call_budget_max"`

	// BatchSize is the number of ASINs per catalog lookup, bounded by the
	// provider maximum of 10.
	BatchSize int `toml:"batch_size"`

	// Concurrency bounds catalog batches in flight at once.
	Concurrency int `toml:"concurrency"`

	// CacheTTL is the logical snapshot freshness window; entries serve
	// stale for one more TTL beyond it.
	CacheTTL duration `toml:"cache_ttl"`
}

// RedisConfig holds Redis connection parameters. An empty Addr disables
// redis; the service falls back to the in-process cache.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds the optional snapshot-archive database parameters.
// Leaving both DSN and Host empty disables archiving.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds the optional raw-payload archive parameters. An empty
// Bucket disables payload archiving.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// OnceConfig describes the single request computed in "once" mode. The
// keyword is usually supplied on the command line.
type OnceConfig struct {
	Keyword          string `toml:"keyword"`
	Marketplace      string `toml:"marketplace"`
	SellerStage      string `toml:"seller_stage"`
	ExperienceMonths int    `toml:"experience_months"`
}

// duration wraps time.Duration so TOML values can be written as "6h" or
// "15s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Providers: ProvidersConfig{
			SerpTimeout:    duration{15 * time.Second},
			CatalogTimeout: duration{10 * time.Second},
		},
		Aggregation: AggregationConfig{
			CallBudgetMax: 10,
			BatchSize:     10,
			Concurrency:   6,
			CacheTTL:      duration{6 * time.Hour},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Port:          5432,
			Database:      "marketsnap",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Region:         "us-east-1",
			UseSSL:         true,
			ForcePathStyle: false,
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   60,
			RateWindow:  duration{time.Minute},
		},
		Once: OnceConfig{
			Marketplace: "us",
			SellerStage: "new",
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode: "serve" runs
// the HTTP API, "once" computes a single snapshot and exits.
var validModes = map[string]bool{
	"serve": true,
	"once":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found. Missing provider
// credentials are fatal: the pipeline cannot produce a snapshot without both
// providers.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, once)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Providers.SerpBaseURL == "" {
		errs = append(errs, "providers: serp_base_url must not be empty")
	}
	if c.Providers.SerpAPIKey == "" {
		errs = append(errs, fmt.Sprintf("providers: serp_api_key is required: %v", domain.ErrNoCredentials))
	}
	if c.Providers.CatalogBaseURL == "" {
		errs = append(errs, "providers: catalog_base_url must not be empty")
	}
	if c.Providers.CatalogAPIKey == "" {
		errs = append(errs, fmt.Sprintf("providers: catalog_api_key is required: %v", domain.ErrNoCredentials))
	}

	if c.Aggregation.CallBudgetMax < 2 {
		errs = append(errs, "aggregation: call_budget_max must be >= 2 (one search call plus at least one catalog batch)")
	}
	if c.Aggregation.BatchSize < 1 || c.Aggregation.BatchSize > 10 {
		errs = append(errs, fmt.Sprintf("aggregation: batch_size must be 1-10, got %d", c.Aggregation.BatchSize))
	}
	if c.Aggregation.Concurrency < 1 {
		errs = append(errs, "aggregation: concurrency must be >= 1")
	}
	if c.Aggregation.CacheTTL.Duration <= 0 {
		errs = append(errs, "aggregation: cache_ttl must be positive")
	}

	if c.Postgres.Enabled() && strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}

	if c.S3.Enabled() {
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			errs = append(errs, "s3: access_key and secret_key must both be set")
		}
	}

	if strings.ToLower(c.Mode) == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if strings.ToLower(c.Mode) == "once" {
		if strings.TrimSpace(c.Once.Keyword) == "" {
			errs = append(errs, "once: keyword must not be empty (set once.keyword or pass -keyword)")
		}
		if _, err := domain.ParseSellerStage(c.Once.SellerStage); err != nil {
			errs = append(errs, fmt.Sprintf("once: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Enabled reports whether a snapshot archive database is configured.
func (p PostgresConfig) Enabled() bool {
	return strings.TrimSpace(p.DSN) != "" || p.Host != ""
}

// Enabled reports whether raw-payload archiving is configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// RedisEnabled reports whether a redis cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
