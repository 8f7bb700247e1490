package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/victorgomez09/sgc/internal/config"
	"github.com/victorgomez09/sgc/internal/logger"
)

// Server runs the SGC API over HTTP or HTTPS.
type Server struct {
	cfg        config.Server
	httpServer *http.Server
	certs      *certStore
	logger     *zap.Logger

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

// New prepares the listener settings. With TLS enabled the certificate pair
// is loaded here so a bad path fails at startup.
func New(cfg config.Server, handler http.Handler, zLog *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: zLog,
		stop:   make(chan struct{}),
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			ErrorLog:     logger.NewStdLogger(zLog, zapcore.WarnLevel, "http"),
		},
	}

	if cfg.TLSEnabled() {
		certs, err := newCertStore(cfg.TLS.CertFile, cfg.TLS.KeyFile, zLog)
		if err != nil {
			return nil, err
		}
		s.certs = certs
		s.httpServer.TLSConfig = newTLSConfig(certs)
	} else if !cfg.Insecure {
		return nil, errors.New("TLS not configured and insecure mode is disabled. Set 'insecure: true' to serve plain HTTP")
	}

	return s, nil
}

// Start listens on the configured address and serves in the background.
// Errors other than a graceful stop are sent to errChan.
func (s *Server) Start(errChan chan<- error) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.Serve(ln, errChan)
	return nil
}

// Serve runs the server on ln in the background.
func (s *Server) Serve(ln net.Listener, errChan chan<- error) {
	if s.certs != nil {
		if _, err := s.certs.check(); err != nil {
			s.logger.Error("Serving with an invalid certificate", zap.Error(err))
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.certs.watch(s.stop)
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("Server started",
			zap.String("listen_on", ln.Addr().String()),
			zap.Bool("tls", s.certs != nil))

		var err error
		if s.certs != nil {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server stopped with error", zap.Error(err))
			if errChan != nil {
				errChan <- err
			}
			return
		}
		s.logger.Info("Server stopped gracefully")
	}()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	err := s.httpServer.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}
