package cli

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tlsmanager "github.com/yangtinglin69/saas/internal/server/tls"
)

func TestGenerateCertificate(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "certs", "server.crt")
	keyPath := filepath.Join(dir, "certs", "server.key")

	var out bytes.Buffer
	err := generateCertificate(&out, certPath, keyPath, []string{"admin.localhost", "127.0.0.1"}, []string{"example.com"}, 30)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "cert_file: "+certPath)

	raw, err := os.ReadFile(certPath)
	require.NoError(t, err)
	block, _ := pem.Decode(raw)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	assert.Equal(t, []string{"admin.localhost", "example.com", "*.example.com"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", cert.IPAddresses[0].String())
	assert.NoError(t, cert.VerifyHostname("demo.example.com"))
	assert.Error(t, cert.VerifyHostname("x.admin.localhost"))

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// the pair is usable by the HTTPS listener
	m, err := tlsmanager.NewManager(tlsmanager.Config{CertFile: certPath, KeyFile: keyPath}, nil)
	require.NoError(t, err)
	assert.True(t, m.IsEnabled())
}

func TestGenerateCertificate_Rejects(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, generateCertificate(&bytes.Buffer{}, filepath.Join(dir, "a.crt"), filepath.Join(dir, "a.key"), nil, nil, 30))
	assert.Error(t, generateCertificate(&bytes.Buffer{}, filepath.Join(dir, "a.crt"), filepath.Join(dir, "a.key"), []string{"localhost"}, nil, 0))
}

// Hosts with a single dot are not treated as root domains unless asked.
func TestGenerateCertificate_WildcardOnlyWhenRequested(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "server.crt")

	err := generateCertificate(&bytes.Buffer{}, certPath, filepath.Join(dir, "server.key"), []string{"shop.co.uk", "admin.localhost"}, nil, 1)
	require.NoError(t, err)

	raw, err := os.ReadFile(certPath)
	require.NoError(t, err)
	block, _ := pem.Decode(raw)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	assert.Equal(t, []string{"shop.co.uk", "admin.localhost"}, cert.DNSNames)
	assert.Equal(t, "shop.co.uk", cert.Subject.CommonName)
}
