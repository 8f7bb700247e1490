package logger

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// LoggerManager is the registry of named loggers built from the log
// configuration files.
type LoggerManager struct {
	loggers       map[string]*zap.Logger
	mu            sync.RWMutex
	defaultConfig *Config
	closers       []func()
}

// NewLoggerManager builds every logger declared in logsConfigPaths. A
// "default" logger is always present.
func NewLoggerManager(logsConfigPaths []string) (*LoggerManager, error) {
	lm := &LoggerManager{
		loggers:       make(map[string]*zap.Logger),
		defaultConfig: &DefaultConfig,
	}

	if err := lm.load(logsConfigPaths); err != nil {
		return nil, err
	}

	return lm, nil
}

// adds a new logger to the manager.
// Returns error if a logger with the same name already exists.
func (lm *LoggerManager) AddLogger(name string, logger *zap.Logger) error {
	if logger == nil {
		return errors.New("logger cannot be nil")
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	if _, exists := lm.loggers[name]; exists {
		return fmt.Errorf("logger '%s' already exists", name)
	}

	lm.loggers[name] = logger
	return nil
}

// GetLogger retrieves a logger by name.
func (lm *LoggerManager) GetLogger(name string) (*zap.Logger, error) {
	lm.mu.RLock()
	logger, exists := lm.loggers[name]
	lm.mu.RUnlock()
	if exists {
		return logger, nil
	}

	return nil, fmt.Errorf("logger '%s' not found", name)
}

// Logger returns the named logger, falling back to "default".
func (lm *LoggerManager) Logger(name string) *zap.Logger {
	if l, err := lm.GetLogger(name); err == nil {
		return l
	}
	if l, err := lm.GetLogger("default"); err == nil {
		return l.Named(name)
	}
	return zap.NewNop()
}

// Sync flushes all loggers managed by LoggerManager.
func (lm *LoggerManager) Sync() error {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	var errs []error
	for name, logger := range lm.loggers {
		if err := logger.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("failed to sync logger '%s': %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// Close flushes every logger and stops the background file writers.
func (lm *LoggerManager) Close() error {
	err := lm.Sync()
	for _, c := range lm.closers {
		c()
	}
	return err
}
