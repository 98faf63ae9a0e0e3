// Package config loads the poster configuration: environment variables
// (optionally from a .env file), the multi-site YAML file, and line-based
// keyword/credential files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything read from the environment.
//
// Environment variables:
//
//	PRIMARY_API_URL       — base URL of the primary generation service (default http://localhost:3001)
//	FALLBACK_API_URL      — base URL of the rotating fallback service
//	FALLBACK_MODEL        — model name for the fallback service (default gpt-oss-120b)
//	FALLBACK_KEYS_FILE    — credential file, one key per line (default fallback_api_keys.txt)
//	CATALOG_API_URL       — product catalog search endpoint
//	CATALOG_ACCESS_KEY    — catalog API access key
//	CATALOG_PARTNER_TAG   — affiliate partner tag appended to searches
//	REQUEST_TIMEOUT       — per-call generation timeout (default 60s)
//	MAX_RETRIES           — transient retries per credential (default 3)
//	HEALTH_COOLDOWN       — primary unhealthy cooldown (default 60s)
//	PROBE_TIMEOUT         — primary health probe timeout (default 2s)
//	POST_DELAY            — pacing between published posts (default 12s)
//	MAX_PRODUCTS          — products per article (default 10)
//	SITES_FILE            — multi-site YAML config (default sites.yaml)
//	QUEUE_DB              — sqlite queue path (default poster.db)
//	REDIS_ADDR            — catalog cache Redis address (empty disables the cache)
//	REDIS_PASSWORD        — Redis password
//	REDIS_DB              — Redis database number (default 0)
//	CACHE_TTL             — catalog cache TTL (default 24h)
//	METRICS_ADDR          — metrics listen address for `run` (default :9090, empty disables)
type Config struct {
	PrimaryURL       string
	FallbackURL      string
	FallbackModel    string
	FallbackKeysFile string

	CatalogURL        string
	CatalogAccessKey  string
	CatalogPartnerTag string

	RequestTimeout time.Duration
	MaxRetries     int
	HealthCooldown time.Duration
	ProbeTimeout   time.Duration
	PostDelay      time.Duration
	MaxProducts    int

	SitesFile string
	QueueDB   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	MetricsAddr string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := Config{
		PrimaryURL:       envOrDefault("PRIMARY_API_URL", "http://localhost:3001"),
		FallbackURL:      envOrDefault("FALLBACK_API_URL", "https://api.cerebras.ai/v1"),
		FallbackModel:    envOrDefault("FALLBACK_MODEL", "gpt-oss-120b"),
		FallbackKeysFile: envOrDefault("FALLBACK_KEYS_FILE", "fallback_api_keys.txt"),

		CatalogURL:        os.Getenv("CATALOG_API_URL"),
		CatalogAccessKey:  os.Getenv("CATALOG_ACCESS_KEY"),
		CatalogPartnerTag: os.Getenv("CATALOG_PARTNER_TAG"),

		RequestTimeout: envDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		MaxRetries:     envIntOrDefault("MAX_RETRIES", 3),
		HealthCooldown: envDurationOrDefault("HEALTH_COOLDOWN", 60*time.Second),
		ProbeTimeout:   envDurationOrDefault("PROBE_TIMEOUT", 2*time.Second),
		PostDelay:      envDurationOrDefault("POST_DELAY", 12*time.Second),
		MaxProducts:    envIntOrDefault("MAX_PRODUCTS", 10),

		SitesFile: envOrDefault("SITES_FILE", "sites.yaml"),
		QueueDB:   envOrDefault("QUEUE_DB", "poster.db"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envIntOrDefault("REDIS_DB", 0),
		CacheTTL:      envDurationOrDefault("CACHE_TTL", 24*time.Hour),

		MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
	}

	return cfg, nil
}

// ValidatePosting checks the settings only the posting commands need.
// Control commands (pause, resume, status) work without them.
func (c Config) ValidatePosting() error {
	if c.CatalogURL == "" {
		return fmt.Errorf("config: CATALOG_API_URL is required")
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
