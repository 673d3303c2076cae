// Package config loads application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// Storage backend for persisted progress records
	Storage StorageConfig

	// Progress Service API
	ProgressService ProgressServiceConfig

	// Quiz content
	Quiz QuizConfig

	// Scheduler
	Scheduler SchedulerConfig

	// HTTP interface
	HTTP HTTPConfig

	// Feature Flags
	Features *FeatureFlags

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// UserID identifies the session owner; every persisted record is
	// namespaced under it.
	UserID string

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// StorageConfig holds settings for the persisted key/value store.
type StorageConfig struct {
	// Backend selects the store: "sqlite" (default) or "redis".
	Backend string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// Redis settings for the redis backend.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TTL is how long records live without being rewritten.
	TTL time.Duration
}

// ProgressServiceConfig holds remote Progress Service settings.
type ProgressServiceConfig struct {
	// BaseURL of the Progress Service. Empty disables sync entirely.
	BaseURL string

	// Token is the bearer session credential. Empty means unauthenticated:
	// sync passes are skipped silently.
	Token string

	// Client budgets.
	RequestTimeout time.Duration
	RateLimit      int // requests per minute
	RateLimitBurst int

	// Circuit breaker settings.
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// QuizConfig holds quiz content settings.
type QuizConfig struct {
	// BankPath optionally overrides the embedded question bank. Supported
	// formats: .json, .csv, .xlsx.
	BankPath string
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	// Enable/disable scheduler
	Enabled bool

	// Job intervals
	SyncInterval         time.Duration // push + merge with Progress Service
	RemoteStatsInterval  time.Duration // display-only stats refresh
	PurgeExpiredInterval time.Duration // storage housekeeping

	JobTimeout time.Duration
}

// HTTPConfig holds the local HTTP interface settings.
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// Load loads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App:             loadAppConfig(),
		Storage:         loadStorageConfig(),
		ProgressService: loadProgressServiceConfig(),
		Quiz:            QuizConfig{BankPath: getEnv("QUIZ_BANK_PATH", "")},
		Scheduler:       loadSchedulerConfig(),
		HTTP:            loadHTTPConfig(),
		Features:        LoadFeatureFlags(),
		Observability:   loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", "development"))
	return AppConfig{
		Name:            getEnv("APP_NAME", "brainbuddy-progress"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		UserID:          getEnv("APP_USER_ID", "local"),
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:       getEnv("STORAGE_BACKEND", "sqlite"),
		SQLitePath:    getEnv("STORAGE_SQLITE_PATH", "progress.db"),
		RedisAddr:     getEnv("STORAGE_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("STORAGE_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("STORAGE_REDIS_DB", 0),
		TTL:           getEnvDuration("STORAGE_TTL", 30*24*time.Hour),
	}
}

func loadProgressServiceConfig() ProgressServiceConfig {
	return ProgressServiceConfig{
		BaseURL:                 getEnv("PROGRESS_SERVICE_URL", ""),
		Token:                   getEnv("PROGRESS_SERVICE_TOKEN", ""),
		RequestTimeout:          getEnvDuration("PROGRESS_SERVICE_TIMEOUT", 15*time.Second),
		RateLimit:               getEnvInt("PROGRESS_SERVICE_RATE_LIMIT", 30),
		RateLimitBurst:          getEnvInt("PROGRESS_SERVICE_RATE_LIMIT_BURST", 10),
		CircuitBreakerThreshold: getEnvInt("PROGRESS_SERVICE_CB_THRESHOLD", 5),
		CircuitBreakerTimeout:   getEnvDuration("PROGRESS_SERVICE_CB_TIMEOUT", 30*time.Second),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:              getEnvBool("SCHEDULER_ENABLED", true),
		SyncInterval:         getEnvDuration("SCHEDULER_SYNC_INTERVAL", 5*time.Minute),
		RemoteStatsInterval:  getEnvDuration("SCHEDULER_STATS_INTERVAL", 30*time.Second),
		PurgeExpiredInterval: getEnvDuration("SCHEDULER_PURGE_INTERVAL", time.Hour),
		JobTimeout:           getEnvDuration("SCHEDULER_JOB_TIMEOUT", time.Minute),
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Addr:            getEnv("HTTP_ADDR", "127.0.0.1:8085"),
		ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	switch c.Storage.Backend {
	case "sqlite", "redis":
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_BACKEND must be sqlite or redis, got %q", c.Storage.Backend))
	}

	if c.Storage.Backend == "sqlite" && c.Storage.SQLitePath == "" {
		errs = append(errs, "STORAGE_SQLITE_PATH is required for the sqlite backend")
	}

	if c.App.Environment == EnvProduction && c.ProgressService.BaseURL == "" {
		errs = append(errs, "PROGRESS_SERVICE_URL is required in production")
	}

	if c.Storage.TTL <= 0 {
		errs = append(errs, "STORAGE_TTL must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// SyncConfigured reports whether a Progress Service endpoint is set.
func (c *Config) SyncConfigured() bool {
	return c.ProgressService.BaseURL != ""
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
