package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/api"
	"github.com/victorgomez09/sgc/internal/auth/service"
	"github.com/victorgomez09/sgc/internal/config"
	"github.com/victorgomez09/sgc/internal/database"
	"github.com/victorgomez09/sgc/internal/notify"
	"github.com/victorgomez09/sgc/internal/server"
	shutdownpkg "github.com/victorgomez09/sgc/internal/shutdown"
)

// application is everything main needs to run and stop the service.
type application struct {
	server   *server.Server
	shutdown *shutdownpkg.Manager
}

type ServerBuilder struct {
	config *config.Config
	logger *zap.Logger
}

func NewServerBuilder(cfg *config.Config, logger *zap.Logger) *ServerBuilder {
	return &ServerBuilder{
		config: cfg,
		logger: logger,
	}
}

// Build opens the database and wires the services, the API and the HTTP
// server. Shutdown handlers run in reverse dependency order.
func (sb *ServerBuilder) Build() (*application, error) {
	db, err := database.NewSQLiteDB(sb.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	notifier, err := notify.New(buildNotifyConfig(sb.config.Alerting), sb.logger.Named("notify"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize lockout notifier: %w", err)
	}

	authService := service.NewAuthService(
		db,
		db,
		service.NewBcryptHasher(sb.config.Auth.BcryptCost),
		notifier,
		sb.logger.Named("auth"),
		buildAuthConfig(sb.config.Auth),
	)
	resolver := service.NewPermissionResolver(db, sb.logger.Named("permissions"))

	handler := api.New(sb.config, db, authService, resolver, sb.logger).Handler()
	srv, err := server.New(sb.config.Server, handler, sb.logger)
	if err != nil {
		authService.Close()
		db.Close()
		return nil, err
	}

	sm := shutdownpkg.NewManager(sb.logger)
	sm.RegisterShutdown("http server", srv.Shutdown)
	sm.RegisterCloser("auth service", func() error {
		authService.Close()
		return nil
	})
	sm.RegisterCloser("database", db.Close)

	return &application{server: srv, shutdown: sm}, nil
}
