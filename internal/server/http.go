package server

import (
	"sync/atomic"
	"time"

	"resumatch/internal/analyzer"
	"resumatch/internal/catalog"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig

	// API authentication; the set is swapped whole when Vault rotates keys
	apiKeys atomic.Pointer[map[string]bool]

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Analyzer *analyzer.Service
	Catalog  *catalog.Store

	Observability *observability.ObservabilityManager
	Logger        *errors.Logger

	// OCR reports the OCR circuit breaker in /health when set
	OCR StatsReporter

	certs          *certificateReloader
	certWatcher    *FileWatcher
	catalogWatcher *FileWatcher
	vaultWatcher   *VaultWatcher
}

// StatsReporter is a component that can describe its own state.
type StatsReporter interface {
	Stats() map[string]any
}

// NewServer creates a server over the analyzer and catalog store. om may
// be nil when observability is disabled.
func NewServer(cfg *config.Config, svc *analyzer.Service, store *catalog.Store, om *observability.ObservabilityManager, version string, logger *errors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.Server.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.Server.RateLimit.RequestsPerMin,
			cfg.Server.RateLimit.BurstCapacity,
			logger,
		)
	}

	s := &Server{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		AppConfig:      cfg,
		TLSConfig:      cfg.Server.TLS,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
		RateLimiter:    rateLimiter,
		Analyzer:       svc,
		Catalog:        store,
		Observability:  om,
		Logger:         logger,
	}
	s.SetAPIKeys(cfg.Server.APIKeys)
	return s
}

// SetAPIKeys replaces the accepted API keys. An empty list disables
// authentication.
func (s *Server) SetAPIKeys(keys []string) {
	apiKeyMap := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}
	s.apiKeys.Store(&apiKeyMap)
}

func (s *Server) keys() map[string]bool {
	if m := s.apiKeys.Load(); m != nil {
		return *m
	}
	return nil
}
