// Package api assembles the SGC HTTP surface: the middleware chain, the
// authentication gate and the routes of every module.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/auth/handlers"
	authmw "github.com/victorgomez09/sgc/internal/auth/middleware"
	"github.com/victorgomez09/sgc/internal/auth/service"
	"github.com/victorgomez09/sgc/internal/cerr"
	"github.com/victorgomez09/sgc/internal/cliente"
	"github.com/victorgomez09/sgc/internal/config"
	"github.com/victorgomez09/sgc/internal/database"
	"github.com/victorgomez09/sgc/internal/middleware"
	"github.com/victorgomez09/sgc/pkg/trace"
)

const (
	healthPath = "/health"
	loginPath  = "/auth/login"

	msgHealthy     = "API SGC rodando com sucesso"
	msgUnhealthy   = "Banco de dados indisponível."
	msgRouteAbsent = "Rota não encontrada."
	msgMethod      = "Método não permitido."
)

// API owns the router and the middleware wrapped around it.
type API struct {
	cfg          *config.Config
	db           *database.SQLiteDB
	authService  *service.AuthService
	gate         *authmw.Gate
	loginLimiter *authmw.RateLimiter
	router       chi.Router
	logger       *zap.Logger
}

func New(
	cfg *config.Config,
	db *database.SQLiteDB,
	authService *service.AuthService,
	resolver *service.PermissionResolver,
	logger *zap.Logger,
) *API {
	a := &API{
		cfg:         cfg,
		db:          db,
		authService: authService,
		gate:        authmw.NewGate(authService, resolver, logger, healthPath, loginPath),
		loginLimiter: authmw.NewRateLimiter(
			cfg.Auth.LoginRateLimit.RequestsPerMinute,
			cfg.Auth.LoginRateLimit.Burst),
		router: chi.NewRouter(),
		logger: logger,
	}
	a.registerRoutes()
	return a
}

func (a *API) registerRoutes() {
	r := a.router
	g := a.gate

	authHandler := handlers.NewAuthHandler(a.authService, a.logger)
	users := handlers.NewUserHandler(a.db, a.authService, a.logger)
	profiles := handlers.NewProfileHandler(a.db, a.logger)
	permissions := handlers.NewPermissionHandler(a.db, a.logger)
	audit := handlers.NewAuditHandler(a.db, a.logger)
	clientes := cliente.NewHandler(a.db, a.logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		cerr.WriteFail(w, http.StatusNotFound, msgRouteAbsent)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		cerr.WriteFail(w, http.StatusMethodNotAllowed, msgMethod)
	})

	r.Get(healthPath, a.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.With(a.loginLimiter.Middleware).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	r.Route("/usuarios", func(r chi.Router) {
		r.With(g.RequireDeclared("perfil:USUARIO,C")).Get("/", users.List)
		r.With(g.RequireDeclared("perfil:USUARIO,I")).Post("/", users.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.With(g.RequireDeclared("perfil:USUARIO,C")).Get("/", users.Get)
			r.With(g.RequireDeclared("perfil:USUARIO,A")).Put("/", users.Update)
			r.With(g.RequireDeclared("perfil:USUARIO,E")).Delete("/", users.Delete)
			r.With(g.RequireDeclared("perfil:USUARIO,A")).Patch("/status", users.UpdateStatus)
			r.With(g.RequireDeclared("perfil:USUARIO,A")).Patch("/redefinir-senha", users.ResetPassword)
		})
	})

	crud(r, g, "/perfis", "PERFIL", profiles.List, profiles.Get, profiles.Create, profiles.Update, profiles.Delete)
	crud(r, g, "/permissoes", "PERMISSAO", permissions.List, permissions.Get, permissions.Create, permissions.Update, permissions.Delete)
	crud(r, g, "/clientes", "CLIENTE", clientes.List, clientes.Get, clientes.Create, clientes.Update, clientes.Delete)

	r.Route("/logs-auditoria", func(r chi.Router) {
		r.Use(g.RequireDeclared("perfil:LOG_AUDITORIA,C"))
		r.Get("/", audit.List)
		r.Get("/{id}", audit.Get)
	})
}

// crud mounts the five resource routes of a module, each behind the
// permission matching its action.
func crud(r chi.Router, g *authmw.Gate, path, module string, list, get, create, update, del http.HandlerFunc) {
	perm := func(action string) func(http.Handler) http.Handler {
		return g.RequireDeclared("perfil:" + module + "," + action)
	}
	r.Route(path, func(r chi.Router) {
		r.With(perm("C")).Get("/", list)
		r.With(perm("I")).Post("/", create)
		r.With(perm("C")).Get("/{id}", get)
		r.With(perm("A")).Put("/{id}", update)
		r.With(perm("E")).Delete("/{id}", del)
	})
}

type healthData struct {
	Timestamp time.Time `json:"timestamp"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.Error("Health check failed", zap.Error(err))
		cerr.WriteFail(w, http.StatusServiceUnavailable, msgUnhealthy)
		return
	}
	cerr.WriteSuccess(w, http.StatusOK, msgHealthy, healthData{Timestamp: time.Now().UTC()})
}

// Handler returns the router wrapped in the full middleware chain. The
// request id comes first so every later log line carries it.
func (a *API) Handler() http.Handler {
	chain := middleware.NewMiddlewareChain(trace.WithRequestID())
	if a.cfg.Server.TrustProxyHeaders {
		chain.Use(middleware.Func(chimw.RealIP))
	}
	chain.Use(middleware.NewRecoverMiddleware(a.logger))
	chain.Use(
		middleware.NewLoggingMiddleware(a.logger,
			middleware.WithExcludePaths([]string{healthPath})))
	chain.Use(middleware.NewIPRestrictionMiddleware(a.cfg.Server.AllowedIPs, a.logger))
	chain.AddConfiguredMiddlewares(a.cfg.Middleware, a.logger)
	chain.Use(middleware.Func(a.gate.Authenticate))
	return chain.Then(a.router)
}
