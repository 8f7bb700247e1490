package server

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const TLSMinVersion = tls.VersionTLS12

// ExpiryWarning is how close to NotAfter a certificate starts being
// reported on every check.
const ExpiryWarning = 30 * 24 * time.Hour

const certCheckInterval = 12 * time.Hour

// TLS 1.2 suites offered by the API. TLS 1.3 suites are not configurable.
var CipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
}

var errCertExpired = errors.New("certificate is outside its validity period")

// certStore serves the configured key pair and reloads it from disk when
// the files are replaced, so renewals need no restart.
type certStore struct {
	certFile string
	keyFile  string
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.RWMutex
	cert *tls.Certificate
}

func newCertStore(certFile, keyFile string, logger *zap.Logger) (*certStore, error) {
	cs := &certStore{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger,
		now:      time.Now,
	}
	if err := cs.reload(); err != nil {
		return nil, err
	}
	return cs, nil
}

func (cs *certStore) reload() error {
	cert, err := tls.LoadX509KeyPair(cs.certFile, cs.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	if cert.Leaf == nil && len(cert.Certificate) > 0 {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("failed to parse certificate: %w", err)
		}
		cert.Leaf = leaf
	}

	cs.mu.Lock()
	cs.cert = &cert
	cs.mu.Unlock()
	return nil
}

func (cs *certStore) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.cert, nil
}

// check reloads the pair and reports how long the certificate stays valid.
func (cs *certStore) check() (time.Duration, error) {
	if err := cs.reload(); err != nil {
		cs.logger.Error("Certificate reload failed, keeping the current one", zap.Error(err))
	}

	cs.mu.RLock()
	leaf := cs.cert.Leaf
	cs.mu.RUnlock()

	now := cs.now()
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		cs.logger.Error("Invalid certificate", zap.Time("expires_at", leaf.NotAfter))
		return 0, errCertExpired
	}

	left := leaf.NotAfter.Sub(now)
	if left < ExpiryWarning {
		cs.logger.Warn("Certificate approaching expiration",
			zap.Time("expires_at", leaf.NotAfter),
			zap.Int("days_left", int(left.Hours()/24)))
	}
	return left, nil
}

func (cs *certStore) watch(stop <-chan struct{}) {
	ticker := time.NewTicker(certCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = cs.check()
		case <-stop:
			return
		}
	}
}

func newTLSConfig(cs *certStore) *tls.Config {
	return &tls.Config{
		MinVersion:     TLSMinVersion,
		CipherSuites:   CipherSuites,
		GetCertificate: cs.GetCertificate,
	}
}
