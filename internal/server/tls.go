package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync/atomic"

	"resumatch/internal/config"
	"resumatch/internal/errors"
)

// certificateReloader serves the current key pair and swaps it when the
// files on disk change. A failed reload keeps the previous pair.
type certificateReloader struct {
	certFile string
	keyFile  string
	cert     atomic.Pointer[tls.Certificate]
	logger   *errors.Logger
}

func newCertificateReloader(certFile, keyFile string, logger *errors.Logger) (*certificateReloader, error) {
	r := &certificateReloader{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *certificateReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load server cert/key from files: %w", err)
	}
	r.cert.Store(&cert)
	return nil
}

// Reload is the file watcher callback.
func (r *certificateReloader) Reload() {
	if err := r.reload(); err != nil {
		r.logger.LogError(err, "Failed to reload TLS certificate, keeping previous one")
		return
	}
	r.logger.Info("TLS certificate reloaded", "cert_file", r.certFile)
}

func (r *certificateReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

// buildTLSConfig creates the TLS configuration for server or mutual mode.
// The returned reloader serves the certificate.
func buildTLSConfig(cfg config.TLSConfig, logger *errors.Logger) (*tls.Config, *certificateReloader, error) {
	certs, err := newCertificateReloader(cfg.CertFile, cfg.KeyFile, logger)
	if err != nil {
		return nil, nil, err
	}

	tlsConfig := &tls.Config{
		MinVersion:     tlsVersion(cfg.MinVersion),
		GetCertificate: certs.GetCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	if cfg.Mode == config.TLSModeMutual {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
			return nil, nil, fmt.Errorf("failed to append CA cert")
		}
		tlsConfig.ClientCAs = caCertPool
		tlsConfig.ClientAuth = clientAuthPolicy(cfg.ClientAuthPolicy)
	}

	return tlsConfig, certs, nil
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
