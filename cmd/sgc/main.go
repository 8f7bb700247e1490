package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "sgc.config.yaml", "path to main config file")
	customLogConfigs := flag.String("log-config", "", "comma-separated paths to custom provided log config files")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logManager, zLog := initializeLogging(cfg.LogConfig, *customLogConfigs)
	defer closeLoggers(logManager)

	errChan := make(chan error, 1)
	app, err := NewServerBuilder(cfg, zLog).Build()
	if err != nil {
		zLog.Fatal("Failed to initialize server", zap.Error(err))
	}

	if err := app.server.Start(errChan); err != nil {
		zLog.Error("Failed to start server", zap.Error(err))
		shutdown(app, zLog)
		return
	}

	run(app, errChan, zLog)
}

// initializeLogging loads log.config.json, the file named in the main
// config and any -log-config files, and returns the "sgc" logger.
func initializeLogging(fromConfig, custom string) (*logger.LoggerManager, *zap.Logger) {
	logConfigPaths := []string{"log.config.json"}
	if fromConfig != "" {
		logConfigPaths = append(logConfigPaths, fromConfig)
	}
	for _, p := range strings.Split(custom, ",") {
		if tp := strings.TrimSpace(p); tp != "" {
			logConfigPaths = append(logConfigPaths, tp)
		}
	}

	logManager, err := logger.NewLoggerManager(logConfigPaths)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return logManager, logManager.Logger("sgc")
}

// Flush buffered entries and stop the async file writers.
func closeLoggers(logManager *logger.LoggerManager) {
	// stdout and stderr cannot be synced on every platform
	_ = logManager.Close()
}

// run blocks until a shutdown signal or a server error arrives.
func run(app *application, errChan <-chan error, zLog *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		zLog.Warn("Shutdown signal received. Initializing graceful shutdown", zap.String("signal", sig.String()))
	case err := <-errChan:
		zLog.Error("Server error triggered shutdown", zap.Error(err))
	}

	shutdown(app, zLog)
}

func shutdown(app *application, zLog *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.shutdown.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zLog.Error("Error during shutdown", zap.Error(err))
		return
	}
	zLog.Info("Server shutdown completed")
}
