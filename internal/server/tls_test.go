package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumatch/internal/config"
)

// writeSelfSigned writes a fresh self-signed key pair and returns its paths.
func writeSelfSigned(t *testing.T, dir, commonName string) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0600))
	return certFile, keyFile
}

func leafCommonName(t *testing.T, cert *tls.Certificate) string {
	t.Helper()
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return leaf.Subject.CommonName
}

func TestBuildTLSConfigServerMode(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, "first")

	tlsConfig, certs, err := buildTLSConfig(config.TLSConfig{
		Mode:       "server",
		CertFile:   certFile,
		KeyFile:    keyFile,
		MinVersion: "1.3",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, uint16(tls.VersionTLS13), tlsConfig.MinVersion)
	assert.Equal(t, tls.NoClientCert, tlsConfig.ClientAuth)

	cert, err := tlsConfig.GetCertificate(nil)
	require.NoError(t, err)
	assert.Equal(t, "first", leafCommonName(t, cert))

	writeSelfSigned(t, dir, "second")
	certs.Reload()
	cert, err = tlsConfig.GetCertificate(nil)
	require.NoError(t, err)
	assert.Equal(t, "second", leafCommonName(t, cert))

	// a broken pair keeps serving the previous certificate
	require.NoError(t, os.WriteFile(keyFile, []byte("garbage"), 0600))
	certs.Reload()
	cert, err = tlsConfig.GetCertificate(nil)
	require.NoError(t, err)
	assert.Equal(t, "second", leafCommonName(t, cert))
}

func TestBuildTLSConfigMutualMode(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, "mutual")

	tlsConfig, _, err := buildTLSConfig(config.TLSConfig{
		Mode:             "mutual",
		CertFile:         certFile,
		KeyFile:          keyFile,
		CAFile:           certFile,
		ClientAuthPolicy: "verify",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), tlsConfig.MinVersion)
	assert.Equal(t, tls.VerifyClientCertIfGiven, tlsConfig.ClientAuth)
	assert.NotNil(t, tlsConfig.ClientCAs)

	badCA := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(badCA, []byte("not a certificate"), 0600))
	_, _, err = buildTLSConfig(config.TLSConfig{Mode: "mutual", CertFile: certFile, KeyFile: keyFile, CAFile: badCA}, nil)
	assert.Error(t, err)
}

func TestBuildTLSConfigMissingFiles(t *testing.T) {
	_, _, err := buildTLSConfig(config.TLSConfig{
		Mode:     "server",
		CertFile: filepath.Join(t.TempDir(), "missing.crt"),
		KeyFile:  filepath.Join(t.TempDir(), "missing.key"),
	}, nil)
	assert.Error(t, err)
}

func TestClientAuthPolicy(t *testing.T) {
	assert.Equal(t, tls.RequireAndVerifyClientCert, clientAuthPolicy(""))
	assert.Equal(t, tls.RequireAndVerifyClientCert, clientAuthPolicy("require"))
	assert.Equal(t, tls.RequestClientCert, clientAuthPolicy("request"))
	assert.Equal(t, tls.VerifyClientCertIfGiven, clientAuthPolicy("verify"))
}
