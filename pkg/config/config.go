package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data provider
	Alpaca AlpacaConfig

	// Model artifact
	Model ModelConfig

	// Pipeline
	Watchlist      []string
	LookbackDays   int
	MinHistoryDays int
	MoversDays     int // default lookback of the movers endpoint
	IngestTimeout  time.Duration
	ScoreTimeout   time.Duration // per-ticker scoring budget

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// AlpacaConfig holds Alpaca market-data API configuration
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	DataURL   string // market-data base URL, empty for the SDK default
	Feed      string // sip or iex
}

// ModelConfig holds classifier artifact configuration
type ModelConfig struct {
	// Location is either a local file path or an http(s) URL to the
	// serialized artifact.
	Location string

	// LoadTimeout bounds a remote artifact fetch.
	LoadTimeout time.Duration
}

// defaultWatchlist is used when WATCHLIST is not set.
var defaultWatchlist = []string{"NVDA", "AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Market data
		Alpaca: AlpacaConfig{
			APIKey:    getEnv("ALPACA_API_KEY", ""),
			APISecret: getEnv("ALPACA_API_SECRET", ""),
			DataURL:   getEnv("ALPACA_DATA_URL", ""),
			Feed:      getEnv("ALPACA_FEED", "iex"),
		},

		// Model artifact
		Model: ModelConfig{
			Location:    getEnv("MODEL_LOCATION", "artifacts/model.json"),
			LoadTimeout: getEnvAsDuration("MODEL_LOAD_TIMEOUT", "30s"),
		},

		// Pipeline
		Watchlist:      getEnvAsList("WATCHLIST", defaultWatchlist),
		LookbackDays:   getEnvAsInt("LOOKBACK_DAYS", 60),
		MinHistoryDays: getEnvAsInt("MIN_HISTORY_DAYS", 25),
		MoversDays:     getEnvAsInt("MOVERS_DEFAULT_DAYS", 30),
		IngestTimeout:  getEnvAsDuration("INGEST_TIMEOUT", "2m"),
		ScoreTimeout:   getEnvAsDuration("SCORE_TIMEOUT", "10s"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if len(c.Watchlist) == 0 {
		return fmt.Errorf("WATCHLIST must contain at least one ticker")
	}

	if c.MinHistoryDays > c.LookbackDays {
		return fmt.Errorf("MIN_HISTORY_DAYS (%d) cannot exceed LOOKBACK_DAYS (%d)",
			c.MinHistoryDays, c.LookbackDays)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList parses a comma-separated env var into uppercase ticker symbols.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v != "" {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return defaultValue
	}

	return values
}
