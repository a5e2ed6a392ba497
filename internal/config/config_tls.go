package config

import (
	"errors"
	"fmt"
	"slices"
)

// TLS modes accepted by server.tls.mode.
const (
	TLSModeDisabled = "disabled"
	TLSModeServer   = "server"
	TLSModeMutual   = "mutual"
)

var (
	clientAuthPolicies = []string{"", "require", "request", "verify"}
	tlsMinVersions     = []string{"", "1.2", "1.3"}
)

// Enabled reports whether the listener should terminate TLS.
func (t TLSConfig) Enabled() bool {
	return t.Mode == TLSModeServer || t.Mode == TLSModeMutual
}

// ValidateTLSConfig checks server.tls and reports every problem found.
// An empty mode is treated as disabled.
func (c *Config) ValidateTLSConfig() error {
	t := c.Server.TLS
	var errs []error

	switch t.Mode {
	case "", TLSModeDisabled:
	case TLSModeServer, TLSModeMutual:
		if t.CertFile == "" || t.KeyFile == "" {
			errs = append(errs, fmt.Errorf("TLS certificate and key files are required for %s mode", t.Mode))
		}
		if t.Mode == TLSModeMutual {
			if t.CAFile == "" {
				errs = append(errs, errors.New("CA certificate is required for mutual TLS mode (set caFile)"))
			}
			if !slices.Contains(clientAuthPolicies, t.ClientAuthPolicy) {
				errs = append(errs, fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", t.ClientAuthPolicy))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", t.Mode))
	}

	if !slices.Contains(tlsMinVersions, t.MinVersion) {
		errs = append(errs, fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", t.MinVersion))
	}
	return errors.Join(errs...)
}
