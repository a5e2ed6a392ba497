package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name        string
		tls         TLSConfig
		expectError bool
		errorMsg    string
	}{
		{name: "disabled mode", tls: TLSConfig{Mode: "disabled"}},
		{name: "empty mode", tls: TLSConfig{}},
		{
			name: "server mode valid",
			tls:  TLSConfig{Mode: "server", CertFile: "/path/cert.pem", KeyFile: "/path/key.pem", MinVersion: "1.3"},
		},
		{
			name:        "server mode missing key",
			tls:         TLSConfig{Mode: "server", CertFile: "/path/cert.pem"},
			expectError: true,
			errorMsg:    "required for server mode",
		},
		{
			name: "mutual mode valid",
			tls:  TLSConfig{Mode: "mutual", CertFile: "/c", KeyFile: "/k", CAFile: "/ca", ClientAuthPolicy: "verify"},
		},
		{
			name:        "mutual mode missing CA",
			tls:         TLSConfig{Mode: "mutual", CertFile: "/c", KeyFile: "/k"},
			expectError: true,
			errorMsg:    "CA certificate is required",
		},
		{
			name:        "mutual mode bad policy",
			tls:         TLSConfig{Mode: "mutual", CertFile: "/c", KeyFile: "/k", CAFile: "/ca", ClientAuthPolicy: "maybe"},
			expectError: true,
			errorMsg:    "invalid clientAuthPolicy: maybe",
		},
		{
			name:        "invalid mode",
			tls:         TLSConfig{Mode: "invalid"},
			expectError: true,
			errorMsg:    "invalid TLS mode: invalid",
		},
		{
			name:        "invalid version",
			tls:         TLSConfig{Mode: "disabled", MinVersion: "1.0"},
			expectError: true,
			errorMsg:    "invalid TLS minVersion: 1.0",
		},
		{
			name:        "reports every problem",
			tls:         TLSConfig{Mode: "mutual", MinVersion: "1.1"},
			expectError: true,
			errorMsg:    "required for mutual mode\nCA certificate is required for mutual TLS mode (set caFile)\ninvalid TLS minVersion: 1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{TLS: tt.tls}}
			err := cfg.ValidateTLSConfig()
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTLSConfigEnabled(t *testing.T) {
	assert.False(t, TLSConfig{}.Enabled())
	assert.False(t, TLSConfig{Mode: TLSModeDisabled}.Enabled())
	assert.True(t, TLSConfig{Mode: TLSModeServer}.Enabled())
	assert.True(t, TLSConfig{Mode: TLSModeMutual}.Enabled())
}
