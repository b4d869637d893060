package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Log       LogConfig
	Upstream  UpstreamConfig
	Cache     CacheConfig
	Session   SessionConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig selects the logger flavour and level.
type LogConfig struct {
	Env   string
	Level string
}

// UpstreamConfig holds the price and exchange-rate sources.
// An empty PriceEndpointURL selects the in-process Yahoo source; an empty
// RatesEndpointURL selects open.er-api.com directly.
type UpstreamConfig struct {
	PriceEndpointURL   string
	RatesEndpointURL   string
	YahooBaseURL       string
	ExchangeRateAPIURL string
	FetchTimeout       time.Duration
	PriceConcurrency   int
}

// CacheConfig holds the quote cache settings. An empty RedisAddr uses an in-process cache.
type CacheConfig struct {
	RedisAddr string
	QuoteTTL  time.Duration
}

// SessionConfig holds session token settings.
type SessionConfig struct {
	Key *fernet.Key
	TTL time.Duration
	// KeyGenerated is true when no SESSION_KEY was configured and a random one was made.
	KeyGenerated bool
}

// SchedulerConfig holds cron specs for background jobs. Empty disables the job;
// set the variable to "off" to disable it from the environment.
type SchedulerConfig struct {
	PriceRefresh   string
	SessionCleanup string
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")
	config := &Config{
		Env: env,
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/portfolio_tracker.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://localhost",
			}),
		},
		Log: LogConfig{
			Env:   getEnv("LOG_ENV", env),
			Level: os.Getenv("LOG_LEVEL"),
		},
		Upstream: UpstreamConfig{
			PriceEndpointURL:   os.Getenv("PRICE_ENDPOINT_URL"),
			RatesEndpointURL:   os.Getenv("RATES_ENDPOINT_URL"),
			YahooBaseURL:       getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			ExchangeRateAPIURL: getEnv("EXCHANGE_RATE_API_URL", "https://open.er-api.com/v6/latest/USD"),
		},
		Cache: CacheConfig{
			RedisAddr: os.Getenv("REDIS_ADDR"),
		},
		Scheduler: SchedulerConfig{
			PriceRefresh:   getEnv("PRICE_REFRESH_SCHEDULE", "@every 5m"),
			SessionCleanup: getEnv("SESSION_CLEANUP_SCHEDULE", "@hourly"),
		},
	}

	var err error
	if config.Upstream.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.Upstream.PriceConcurrency, err = getInt("PRICE_FETCH_CONCURRENCY", 8); err != nil {
		return nil, err
	}
	if config.Upstream.PriceConcurrency < 1 {
		return nil, fmt.Errorf("PRICE_FETCH_CONCURRENCY must be at least 1")
	}
	if config.Cache.QuoteTTL, err = getDuration("QUOTE_CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}
	if config.Session.TTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	config.Scheduler.PriceRefresh = scheduleSpec(config.Scheduler.PriceRefresh)
	config.Scheduler.SessionCleanup = scheduleSpec(config.Scheduler.SessionCleanup)

	if err := config.loadSessionKey(os.Getenv("SESSION_KEY")); err != nil {
		return nil, err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// loadSessionKey decodes SESSION_KEY. Outside production a missing key is
// replaced by a random one, which invalidates tokens on restart.
func (c *Config) loadSessionKey(encoded string) error {
	if encoded == "" {
		if c.IsProduction() {
			return fmt.Errorf("SESSION_KEY is required in production")
		}
		var key fernet.Key
		if err := key.Generate(); err != nil {
			return fmt.Errorf("failed to generate session key: %w", err)
		}
		c.Session.Key = &key
		c.Session.KeyGenerated = true
		return nil
	}

	key, err := fernet.DecodeKey(encoded)
	if err != nil {
		return fmt.Errorf("invalid SESSION_KEY: %w", err)
	}
	c.Session.Key = key
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getList splits a comma-separated environment variable.
func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func scheduleSpec(spec string) string {
	if strings.EqualFold(spec, "off") {
		return ""
	}
	return spec
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
