// Package config handles loading and validating SkillBridge configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()
}

// Config is the root configuration for SkillBridge.
type Config struct {
	DataDir       string               `json:"data_dir,omitempty" yaml:"data_dir,omitempty"` // Persistent data directory. Default: ~/.skillbridge/data. Override: SKILLBRIDGE_DATA_DIR env var.
	Storage       *StorageConfig       `json:"storage,omitempty" yaml:"storage,omitempty"`   // nil = SQLite default (derived from data dir)
	HTTP          *HTTPConfig          `json:"http,omitempty" yaml:"http,omitempty"`         // nil = defaults (listen on :8080)
	Providers     ProvidersConfig      `json:"providers" yaml:"providers"`
	Observability *ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"` // nil = observability disabled
	StatsSync     *StatsSyncConfig     `json:"stats_sync,omitempty" yaml:"stats_sync,omitempty"`       // nil = stats refresher disabled
}

// StorageConfig configures the persistence backend.
// When nil, defaults to SQLite with the database path derived from the data directory.
type StorageConfig struct {
	Driver   string                 `json:"driver" yaml:"driver"`                         // "sqlite" (default) or "postgres".
	SQLite   *SQLiteStorageConfig   `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`     // SQLite-specific settings.
	Postgres *PostgresStorageConfig `json:"postgres,omitempty" yaml:"postgres,omitempty"` // PostgreSQL-specific settings.
}

// StorageDriver returns the configured driver, defaulting to "sqlite".
func (s *StorageConfig) StorageDriver() string {
	if s != nil && s.Driver != "" {
		return s.Driver
	}
	return "sqlite"
}

// SQLiteStorageConfig holds SQLite-specific settings.
type SQLiteStorageConfig struct {
	Path        string `json:"path,omitempty" yaml:"path,omitempty"` // Database file path. Default: derived from data dir.
	JournalMode string `json:"journal_mode" yaml:"journal_mode"`     // "wal" (default), "delete", "truncate", etc.
}

// PostgresStorageConfig holds PostgreSQL-specific settings.
type PostgresStorageConfig struct {
	DSN              string `json:"dsn" yaml:"dsn"`                                 // Override: SKILLBRIDGE_DB_DSN env var.
	MaxOpenConns     int    `json:"max_open_conns" yaml:"max_open_conns"`           // Default: 25
	MaxIdleConns     int    `json:"max_idle_conns" yaml:"max_idle_conns"`           // Default: 5
	ConnMaxLifetimeS int    `json:"conn_max_lifetime_s" yaml:"conn_max_lifetime_s"` // Default: 1800 (30 min)
}

// HTTPConfig configures the HTTP API server.
type HTTPConfig struct {
	ListenAddr          string          `json:"listen_addr" yaml:"listen_addr"` // Default: ":8080". Override: SKILLBRIDGE_LISTEN_ADDR env var.
	EnableDocs          bool            `json:"enable_docs" yaml:"enable_docs"`
	MaxRequestSizeBytes int64           `json:"max_request_size_bytes" yaml:"max_request_size_bytes"`
	RateLimit           RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
}

// Addr returns the listen address with a default of ":8080".
func (h *HTTPConfig) Addr() string {
	if h != nil && h.ListenAddr != "" {
		return h.ListenAddr
	}
	return ":8080"
}

// DocsEnabled reports whether the OpenAPI docs endpoint is served.
func (h *HTTPConfig) DocsEnabled() bool {
	return h != nil && h.EnableDocs
}

// RateLimitConfig configures per-caller rate limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
	BurstSize         int `json:"burst_size" yaml:"burst_size"`
}

// Limits returns the effective rate limit, zero meaning disabled.
func (h *HTTPConfig) Limits() RateLimitConfig {
	if h == nil {
		return RateLimitConfig{}
	}
	return h.RateLimit
}

// ObservabilityConfig configures metrics and tracing.
// When nil, all observability features are disabled with zero overhead.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Tracing *TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"` // Default: "/metrics"
}

// TracingConfig configures OpenTelemetry distributed tracing.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`         // OTLP endpoint, e.g. "localhost:4317"
	Protocol    string  `json:"protocol" yaml:"protocol"`         // "grpc" or "http". Default: "grpc"
	ServiceName string  `json:"service_name" yaml:"service_name"` // Default: "skillbridge"
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`   // 0.0–1.0. Default: 1.0
	Insecure    bool    `json:"insecure" yaml:"insecure"`         // Skip TLS for dev
}

// StatsSyncConfig configures the periodic refresher that writes the
// denormalized challenge/rating aggregates back onto profiles.
type StatsSyncConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Schedule string `json:"schedule" yaml:"schedule"` // Cron expression. Default: "@every 5m".
}

// CronSpec returns the cron schedule with a default of every 5 minutes.
func (s *StatsSyncConfig) CronSpec() string {
	if s != nil && s.Schedule != "" {
		return s.Schedule
	}
	return "@every 5m"
}

// ProvidersConfig configures the LLM providers used by the suggestion
// pipeline. A missing API key is not an error — the pipeline falls back to
// deterministic matching, so the platform works out of the box.
type ProvidersConfig struct {
	Default  string       `json:"default" yaml:"default"`                       // "groq", "openai", "ollama". Empty = "groq".
	Fallback []string     `json:"fallback,omitempty" yaml:"fallback,omitempty"` // Fallback providers tried in order when default fails.
	Groq     GroqConfig   `json:"groq" yaml:"groq"`
	OpenAI   OpenAIConfig `json:"openai" yaml:"openai"`
	Ollama   OllamaConfig `json:"ollama" yaml:"ollama"`
}

// GroqConfig configures the Groq provider.
type GroqConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"` // Override: GROQ_API_KEY env var.
	Model   string `json:"model" yaml:"model"`     // Default: "llama-3.3-70b-versatile".
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// GroqModel returns the configured model with the platform default.
func (g *GroqConfig) GroqModel() string {
	if g != nil && g.Model != "" {
		return g.Model
	}
	return "llama-3.3-70b-versatile"
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"` // Override: OPENAI_API_KEY env var.
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url" yaml:"base_url"` // Optional. Defaults to https://api.openai.com.
}

// OllamaConfig configures a local Ollama provider.
type OllamaConfig struct {
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url" yaml:"base_url"` // Optional. Defaults to http://localhost:11434.
}

// DefaultConfigPath returns the default config file path (~/.skillbridge/config.json).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "configs/skillbridge.json" // fallback for environments without a home dir
	}
	return filepath.Join(home, ".skillbridge", "config.json")
}

// Default returns a zero-config setup: SQLite under the data directory,
// HTTP on :8080, no LLM credentials (deterministic suggestions only).
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	cfg.resolveDataDir()
	return cfg
}

// Load reads a JSON or YAML config file and returns a validated Config.
// The format is detected by file extension: .yml/.yaml for YAML, everything
// else for JSON. Provider API keys can be set in the config file or
// overridden by environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	// Expand ~ in config path.
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", resolved, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config %s: %w", resolved, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config %s: %w", resolved, err)
		}
	}

	applyEnvOverrides(&cfg)
	cfg.resolveDataDir()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variables on top of config values.
// Env vars take precedence over the file.
func applyEnvOverrides(cfg *Config) {
	if envKey := os.Getenv("GROQ_API_KEY"); envKey != "" {
		cfg.Providers.Groq.APIKey = envKey
	}
	if envKey := os.Getenv("OPENAI_API_KEY"); envKey != "" {
		cfg.Providers.OpenAI.APIKey = envKey
	}
	if envDD := os.Getenv("SKILLBRIDGE_DATA_DIR"); envDD != "" {
		cfg.DataDir = envDD
	}
	if envAddr := os.Getenv("SKILLBRIDGE_LISTEN_ADDR"); envAddr != "" {
		if cfg.HTTP == nil {
			cfg.HTTP = &HTTPConfig{}
		}
		cfg.HTTP.ListenAddr = envAddr
	}
	if envDSN := os.Getenv("SKILLBRIDGE_DB_DSN"); envDSN != "" {
		if cfg.Storage == nil {
			cfg.Storage = &StorageConfig{}
		}
		if cfg.Storage.Postgres == nil {
			cfg.Storage.Postgres = &PostgresStorageConfig{}
		}
		cfg.Storage.Driver = "postgres"
		cfg.Storage.Postgres.DSN = envDSN
	}
}

func (c *Config) resolveDataDir() {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.DataDir = filepath.Join(home, ".skillbridge", "data")
		}
	}
}

// resolvePath expands ~ to the user home directory and returns an absolute path.
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

// ResolvedDataDir returns the data directory, resolving ~ if needed.
func (c *Config) ResolvedDataDir() string {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		return filepath.Join(home, ".skillbridge", "data")
	}
	resolved, err := resolvePath(c.DataDir)
	if err != nil {
		return c.DataDir
	}
	return resolved
}

// DatabasePath returns the default SQLite database path under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.ResolvedDataDir(), "skillbridge.db")
}

// StorageDriverName returns the effective storage driver name.
func (c *Config) StorageDriverName() string {
	if c.Storage != nil {
		return c.Storage.StorageDriver()
	}
	return "sqlite"
}

// DefaultProvider returns the effective default provider name.
func (c *Config) DefaultProvider() string {
	if c.Providers.Default != "" {
		return c.Providers.Default
	}
	return "groq"
}

func (c *Config) validate() error {
	switch c.DefaultProvider() {
	case "groq", "openai", "ollama":
		// valid
	default:
		return fmt.Errorf("providers.default %q is not supported (use groq, openai, or ollama)", c.Providers.Default)
	}
	for _, name := range c.Providers.Fallback {
		switch name {
		case "groq", "openai", "ollama":
		default:
			return fmt.Errorf("providers.fallback %q is not supported (use groq, openai, or ollama)", name)
		}
	}
	// Storage driver validation.
	if c.Storage != nil && c.Storage.Driver != "" {
		switch c.Storage.Driver {
		case "sqlite", "postgres":
			// valid
		default:
			return fmt.Errorf("storage.driver %q is not supported (use sqlite or postgres)", c.Storage.Driver)
		}
	}
	if c.Storage.StorageDriver() == "postgres" {
		if c.Storage == nil || c.Storage.Postgres == nil || c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for the postgres driver (or set SKILLBRIDGE_DB_DSN)")
		}
	}
	if c.HTTP != nil {
		if c.HTTP.RateLimit.RequestsPerMinute < 0 || c.HTTP.RateLimit.BurstSize < 0 {
			return fmt.Errorf("http.rate_limit values must not be negative")
		}
	}
	if c.Observability != nil && c.Observability.Tracing != nil && c.Observability.Tracing.Enabled {
		if c.Observability.Tracing.Endpoint == "" {
			return fmt.Errorf("observability.tracing.endpoint is required when tracing is enabled")
		}
		switch c.Observability.Tracing.Protocol {
		case "", "grpc", "http":
			// valid
		default:
			return fmt.Errorf("observability.tracing.protocol %q is not supported (use grpc or http)", c.Observability.Tracing.Protocol)
		}
	}
	return nil
}
