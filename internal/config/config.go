package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"resumatch/internal/errors"
)

// Config holds all application configuration
// API key precedence:
// 1. Vault (if configured)
// 2. Config file values
// 3. Environment variables (RESUMATCH_SERVER_APIKEYS, ...)
// 4. Defaults
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	Matching      MatchingConfig      `mapstructure:"matching"`
	Extractor     ExtractorConfig     `mapstructure:"extractor"`
	Server        ServerConfig        `mapstructure:"server"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
	PreviewLength    int      `mapstructure:"previewLength"`
}

// Catalog source kinds
const (
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// CatalogConfig selects where the skill vocabulary and job catalog come from
type CatalogConfig struct {
	Source        string        `mapstructure:"source"`
	SkillsFile    string        `mapstructure:"skillsFile"`
	JobsFile      string        `mapstructure:"jobsFile"`
	SQLitePath    string        `mapstructure:"sqlitePath"`
	PostgresDSN   string        `mapstructure:"postgresDSN"`
	AllowMissing  bool          `mapstructure:"allowMissing"`
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watchDebounce"`
}

// MatchingConfig bounds the number of recommendations
type MatchingConfig struct {
	DefaultLimit int `mapstructure:"defaultLimit"`
	MaxLimit     int `mapstructure:"maxLimit"`
}

// ExtractorConfig holds document text extraction settings
type ExtractorConfig struct {
	OCR OCRConfig `mapstructure:"ocr"`
}

// OCRConfig configures the Gemini fallback for PDFs without a text layer
type OCRConfig struct {
	Enabled        bool                 `mapstructure:"enabled"`
	APIKey         string               `mapstructure:"apiKey"`
	Model          string               `mapstructure:"model"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxRetries     int                  `mapstructure:"maxRetries"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	TLS TLSConfig `mapstructure:"tls"`

	// Valid API keys; empty disables authentication
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode             string `mapstructure:"mode"`             // "disabled", "server", "mutual"
	CertFile         string `mapstructure:"certFile"`         // Server certificate (PEM)
	KeyFile          string `mapstructure:"keyFile"`          // Server private key (PEM)
	CAFile           string `mapstructure:"caFile"`           // Client CA (PEM), mutual mode only
	MinVersion       string `mapstructure:"minVersion"`       // "1.2" or "1.3"
	ClientAuthPolicy string `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
	ByIP           bool `mapstructure:"byIP"`
	ByAPIKey       bool `mapstructure:"byAPIKey"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	SampleRate      float64          `mapstructure:"sampleRate"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console exporter configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RESUMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumatch/")
	v.AddConfigPath("$HOME/.resumatch")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Config file search paths: /etc/resumatch/, $HOME/.resumatch, .")

	return load(v)
}

// LoadConfigFile loads configuration from an explicit file path.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RESUMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to read config file", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to unmarshal config", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	invalid := func(msg string) error {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, msg, nil)
	}

	if c.Server.Port == "" {
		return invalid("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return invalid(fmt.Sprintf("invalid default format: %s", c.App.DefaultFormat))
	}
	if c.App.MaxFileSize <= 0 {
		return invalid("app.maxFileSize must be positive")
	}
	if c.App.PreviewLength < 0 {
		return invalid("app.previewLength must not be negative")
	}

	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.SkillsFile == "" || c.Catalog.JobsFile == "" {
			return invalid("catalog.skillsFile and catalog.jobsFile are required for the file source")
		}
	case SourceSQLite:
		if c.Catalog.SQLitePath == "" {
			return invalid("catalog.sqlitePath is required for the sqlite source")
		}
	case SourcePostgres:
		if c.Catalog.PostgresDSN == "" && c.Vault.Secrets.Database == "" {
			return invalid("catalog.postgresDSN (or vault.secrets.database) is required for the postgres source")
		}
	default:
		return invalid(fmt.Sprintf("invalid catalog source: %s (must be 'file', 'sqlite', or 'postgres')", c.Catalog.Source))
	}

	if c.Matching.DefaultLimit <= 0 {
		return invalid("matching.defaultLimit must be positive")
	}
	if c.Matching.MaxLimit < c.Matching.DefaultLimit {
		return invalid("matching.maxLimit must be at least matching.defaultLimit")
	}

	if c.Extractor.OCR.Enabled && c.Extractor.OCR.APIKey == "" && c.Vault.Secrets.OCRKey == "" {
		return invalid("extractor.ocr.apiKey is required when OCR is enabled (set RESUMATCH_EXTRACTOR_OCR_APIKEY)")
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "TLS configuration error", err)
	}

	return nil
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMATCH_APP_LOGLEVEL",
		"RESUMATCH_CATALOG_SOURCE",
		"RESUMATCH_CATALOG_SKILLSFILE",
		"RESUMATCH_CATALOG_JOBSFILE",
		"RESUMATCH_CATALOG_POSTGRESDSN",
		"RESUMATCH_SERVER_PORT",
		"RESUMATCH_SERVER_HOST",
		"RESUMATCH_SERVER_APIKEYS",
		"RESUMATCH_EXTRACTOR_OCR_APIKEY",
		"RESUMATCH_VAULT_ENABLED",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		hasEnvVars = true
		lower := strings.ToLower(envVar)
		if strings.Contains(lower, "key") || strings.Contains(lower, "dsn") {
			log.Printf("[CONFIG]   %s=***MASKED***", envVar)
		} else {
			log.Printf("[CONFIG]   %s=%s", envVar, value)
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Printf("[CONFIG] Catalog Source: %s", c.Catalog.Source)
	log.Printf("[CONFIG] Server: %s:%s (TLS %s)", c.Server.Host, c.Server.Port, c.Server.TLS.Mode)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] OCR Enabled: %t", c.Extractor.OCR.Enabled)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
}
