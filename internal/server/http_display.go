package server

import (
	"fmt"
	"net/http"
	"strings"

	"resumatch/internal/config"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo(httpServer *http.Server) {
	s.displayAddress(httpServer)
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
	s.displayCatalogInfo()
}

func (s *Server) displayAddress(httpServer *http.Server) {
	switch s.TLSConfig.Mode {
	case config.TLSModeServer:
		fmt.Printf("Starting server with HTTPS (server-only TLS) on https://%s\n", httpServer.Addr)
	case config.TLSModeMutual:
		fmt.Printf("Starting server with mTLS (mutual TLS) on https://%s\n", httpServer.Addr)
		fmt.Printf("Client certificate policy: %s\n", orDefault(s.TLSConfig.ClientAuthPolicy, "require"))
	default:
		fmt.Printf("Starting server on http://%s\n", httpServer.Addr)
		fmt.Println("TLS mode: Disabled (HTTP only)")
	}
	if s.certWatcher != nil {
		fmt.Println("TLS auto-reload: ENABLED (file watching)")
	}
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health              - Health check")
	fmt.Println("  GET  /stats               - Server statistics")
	fmt.Println("  POST /api/upload          - Analyze an uploaded resume (multipart field 'resume')")
	fmt.Println("  POST /api/match           - Match resume text or a skill list against the catalog")
	fmt.Println("  POST /api/skills          - Extract skills from resume text")
	fmt.Println("  GET  /api/catalog         - Describe the loaded catalog")
	fmt.Println("  POST /api/catalog/reload  - Reload the catalog")
	fmt.Printf("Supported upload formats: %s\n", strings.Join(s.Analyzer.SupportedExtensions(), ", "))
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if n := len(s.keys()); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /api/*")
		if s.vaultWatcher != nil {
			fmt.Println("  - Keys are refreshed from Vault")
		}
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}

func (s *Server) displayCatalogInfo() {
	stats := s.Catalog.Stats()
	fmt.Printf("Catalog: %s source, %d skills, %d jobs\n", stats.Source, stats.Vocabulary, stats.Jobs)
	if s.catalogWatcher != nil {
		fmt.Printf("  - Watching %s for changes\n", strings.Join(s.catalogWatcher.WatchedFiles(), ", "))
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
