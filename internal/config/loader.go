package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETSNAP_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETSNAP_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Providers ──
	setStr(&cfg.Providers.SerpBaseURL, "MARKETSNAP_SERP_BASE_URL")
	setStr(&cfg.Providers.SerpAPIKey, "MARKETSNAP_SERP_API_KEY")
	setDuration(&cfg.Providers.SerpTimeout, "MARKETSNAP_SERP_TIMEOUT")
	setStr(&cfg.Providers.CatalogBaseURL, "MARKETSNAP_CATALOG_BASE_URL")
	setStr(&cfg.Providers.CatalogAPIKey, "MARKETSNAP_CATALOG_API_KEY")
	setDuration(&cfg.Providers.CatalogTimeout, "MARKETSNAP_CATALOG_TIMEOUT")

	// ── Aggregation ──
	setInt(&cfg.Aggregation.CallBudgetMax, "MARKETSNAP_CALL_BUDGET_MAX")
	setInt(&cfg.Aggregation.BatchSize, "MARKETSNAP_BATCH_SIZE")
	setInt(&cfg.Aggregation.Concurrency, "MARKETSNAP_CONCURRENCY")
	setDuration(&cfg.Aggregation.CacheTTL, "MARKETSNAP_CACHE_TTL")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MARKETSNAP_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETSNAP_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETSNAP_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETSNAP_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETSNAP_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MARKETSNAP_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "MARKETSNAP_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "MARKETSNAP_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MARKETSNAP_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MARKETSNAP_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MARKETSNAP_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MARKETSNAP_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MARKETSNAP_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MARKETSNAP_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MARKETSNAP_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MARKETSNAP_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "MARKETSNAP_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETSNAP_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETSNAP_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETSNAP_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETSNAP_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MARKETSNAP_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MARKETSNAP_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "MARKETSNAP_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETSNAP_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "MARKETSNAP_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "MARKETSNAP_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "MARKETSNAP_SERVER_RATE_WINDOW")

	// ── Once ──
	setStr(&cfg.Once.Keyword, "MARKETSNAP_ONCE_KEYWORD")
	setStr(&cfg.Once.Marketplace, "MARKETSNAP_ONCE_MARKETPLACE")
	setStr(&cfg.Once.SellerStage, "MARKETSNAP_ONCE_SELLER_STAGE")
	setInt(&cfg.Once.ExperienceMonths, "MARKETSNAP_ONCE_EXPERIENCE_MONTHS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MARKETSNAP_MODE")
	setStr(&cfg.LogLevel, "MARKETSNAP_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
