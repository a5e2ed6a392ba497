package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024) // 10MB
	v.SetDefault("app.previewLength", 1000)

	// Catalog
	v.SetDefault("catalog.source", SourceFile)
	v.SetDefault("catalog.skillsFile", "skills.txt")
	v.SetDefault("catalog.jobsFile", "jobs.csv")
	v.SetDefault("catalog.sqlitePath", "resumatch.db")
	v.SetDefault("catalog.postgresDSN", "")
	v.SetDefault("catalog.allowMissing", true)
	v.SetDefault("catalog.watch", true)
	v.SetDefault("catalog.watchDebounce", 500*time.Millisecond)

	// Matching
	v.SetDefault("matching.defaultLimit", 5)
	v.SetDefault("matching.maxLimit", 50)

	// OCR fallback
	v.SetDefault("extractor.ocr.enabled", false)
	v.SetDefault("extractor.ocr.apiKey", "")
	v.SetDefault("extractor.ocr.model", "gemini-2.0-flash")
	v.SetDefault("extractor.ocr.timeout", 60*time.Second)
	v.SetDefault("extractor.ocr.maxRetries", 2)
	v.SetDefault("extractor.ocr.circuitBreaker.enabled", true)
	v.SetDefault("extractor.ocr.circuitBreaker.maxRequests", 3)
	v.SetDefault("extractor.ocr.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("extractor.ocr.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("extractor.ocr.circuitBreaker.minRequests", 3)
	v.SetDefault("extractor.ocr.circuitBreaker.failureThreshold", 0.6)

	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 12*1024*1024)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.ocrKey", "")
	v.SetDefault("vault.secrets.database", "")
	v.SetDefault("vault.watch.enabled", false)
	v.SetDefault("vault.watch.pollInterval", 5*time.Minute)

	// Observability
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumatch")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}

// applyFallbacks fills values viper cannot derive on its own
func (c *Config) applyFallbacks() {
	// A comma separated env var does not unmarshal into a slice
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("RESUMATCH_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitAndTrim(apiKeysEnv)
		}
	}
	if len(c.Server.APIKeys) == 1 && strings.Contains(c.Server.APIKeys[0], ",") {
		c.Server.APIKeys = splitAndTrim(c.Server.APIKeys[0])
	}

	if c.Server.TLS.Mode == "" {
		c.Server.TLS.Mode = TLSModeDisabled
	}
	if c.Server.TLS.Mode == TLSModeMutual && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Enabled() {
		c.Server.TLS.MinVersion = "1.2"
	}

	c.Catalog.Source = strings.ToLower(strings.TrimSpace(c.Catalog.Source))

	if c.Observability.ServiceInstance == "" {
		if hostname, err := os.Hostname(); err == nil {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-%s", c.Observability.ServiceName, hostname)
		} else {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-1", c.Observability.ServiceName)
		}
	}
}

func splitAndTrim(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
