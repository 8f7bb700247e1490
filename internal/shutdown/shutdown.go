package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type handler struct {
	name string
	fn   func(context.Context) error
}

// Manager runs the registered shutdown handlers in registration order, so
// the HTTP server stops before the store it depends on is closed.
type Manager struct {
	handlers []handler
	mu       sync.Mutex
	once     sync.Once
	err      error
	logger   *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// RegisterShutdown appends a named handler.
func (sh *Manager) RegisterShutdown(name string, fn func(context.Context) error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.handlers = append(sh.handlers, handler{name: name, fn: fn})
}

// RegisterCloser adapts a Close method without a context.
func (sh *Manager) RegisterCloser(name string, fn func() error) {
	sh.RegisterShutdown(name, func(context.Context) error { return fn() })
}

// Shutdown runs every handler once. A failing handler does not stop the
// following ones; once ctx expires the remaining handlers are skipped.
func (sh *Manager) Shutdown(ctx context.Context) error {
	sh.once.Do(func() {
		sh.mu.Lock()
		handlers := append([]handler(nil), sh.handlers...)
		sh.mu.Unlock()

		var errs []error
		for _, h := range handlers {
			if err := ctx.Err(); err != nil {
				errs = append(errs, fmt.Errorf("%s shutdown skipped: %w", h.name, err))
				continue
			}
			if err := h.fn(ctx); err != nil {
				sh.logger.Error("Shutdown step failed", zap.String("step", h.name), zap.Error(err))
				errs = append(errs, fmt.Errorf("%s shutdown: %w", h.name, err))
				continue
			}
			sh.logger.Debug("Shutdown step completed", zap.String("step", h.name))
		}
		sh.err = errors.Join(errs...)
	})
	return sh.err
}
