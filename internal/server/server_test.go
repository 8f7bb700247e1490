package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/config"
)

func writeCert(t *testing.T, notAfter time.Time) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "sgc.local"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

var hello = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, "ok")
})

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func TestNewRequiresTLSOrInsecure(t *testing.T) {
	_, err := New(config.Server{Port: 8000}, hello, zap.NewNop())
	assert.Error(t, err)

	_, err = New(config.Server{Port: 8000, TLS: &config.TLS{Enabled: true, CertFile: "missing.pem", KeyFile: "missing.key"}}, hello, zap.NewNop())
	assert.Error(t, err)
}

func TestServeHTTPAndShutdown(t *testing.T) {
	s, err := New(config.Server{Insecure: true, ReadTimeout: time.Second}, hello, zap.NewNop())
	require.NoError(t, err)

	ln := listen(t)
	errChan := make(chan error, 1)
	s.Serve(ln, errChan)

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.Empty(t, errChan)
}

func TestServeTLS(t *testing.T) {
	certFile, keyFile := writeCert(t, time.Now().Add(365*24*time.Hour))
	s, err := New(config.Server{TLS: &config.TLS{Enabled: true, CertFile: certFile, KeyFile: keyFile}}, hello, zap.NewNop())
	require.NoError(t, err)

	ln := listen(t)
	s.Serve(ln, nil)
	defer s.Shutdown(context.Background())

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true, MaxVersion: tls.VersionTLS12},
	}}
	resp, err := client.Get("https://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint16(tls.VersionTLS12), resp.TLS.Version)

	client = &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true, MaxVersion: tls.VersionTLS11},
	}}
	_, err = client.Get("https://" + ln.Addr().String() + "/")
	assert.Error(t, err)
}

func TestCertStoreCheck(t *testing.T) {
	certFile, keyFile := writeCert(t, time.Now().Add(10*24*time.Hour))
	cs, err := newCertStore(certFile, keyFile, zap.NewNop())
	require.NoError(t, err)

	left, err := cs.check()
	require.NoError(t, err)
	assert.Less(t, left, ExpiryWarning)

	cs.now = func() time.Time { return time.Now().Add(20 * 24 * time.Hour) }
	_, err = cs.check()
	assert.ErrorIs(t, err, errCertExpired)

	cert, err := cs.GetCertificate(nil)
	require.NoError(t, err)
	assert.NotNil(t, cert.Leaf)
}
