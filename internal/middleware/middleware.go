package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/config"
)

// Middleware defines an interface for HTTP middleware.
// Each middleware must implement the Middleware method, which takes the next handler in the chain
// and returns a new handler that wraps additional functionality around it.
type Middleware interface {
	Middleware(next http.Handler) http.Handler
}

// Func adapts a plain func(http.Handler) http.Handler, such as the ones chi
// and the auth gate produce, to Middleware.
type Func func(http.Handler) http.Handler

func (f Func) Middleware(next http.Handler) http.Handler {
	return f(next)
}

// MiddlewareChain manages a sequence of middleware.
// Allows chaining multiple middleware together and applying them to a final HTTP handler.
type MiddlewareChain struct {
	middlewares []Middleware // A slice holding the middleware in the order they should be applied.
}

// NewMiddlewareChain initializes and returns a new MiddlewareChain with the provided middleware.
func NewMiddlewareChain(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{
		middlewares: middlewares,
	}
}

// Use adds a new Middleware to the MiddlewareChain.
func (c *MiddlewareChain) Use(middleware Middleware) {
	c.middlewares = append(c.middlewares, middleware)
}

// Then applies the middleware chain to the final HTTP handler.
// The first middleware added is the first to process the request.
func (c *MiddlewareChain) Then(final http.Handler) http.Handler {
	if final == nil {
		final = http.NotFoundHandler()
	}

	for i := len(c.middlewares) - 1; i >= 0; i-- {
		final = c.middlewares[i].Middleware(final)
	}
	return final
}

// AddConfiguredMiddlewares adds the global middleware enabled in cfg, in a
// fixed order: rate limit, security headers, CORS, compression.
func (c *MiddlewareChain) AddConfiguredMiddlewares(cfg config.Middleware, logger *zap.Logger) {
	if rl := cfg.RateLimit; rl != nil {
		c.Use(NewRateLimiterMiddleware(rl.RequestsPerSecond, rl.Burst))
		logger.Info("Global Rate Limiter middleware configured",
			zap.Float64("requests_per_second", rl.RequestsPerSecond),
			zap.Int("burst", rl.Burst))
	}

	if cfg.Security != nil {
		c.Use(NewSecurityMiddleware(cfg.Security))
		logger.Info("Global Security middleware configured")
	}

	if cfg.CORS != nil {
		c.Use(NewCORSMiddleware(cfg.CORS))
		logger.Info("Global CORS middleware configured",
			zap.Strings("allowed_origins", cfg.CORS.AllowedOrigins))
	}

	if cfg.Compression {
		c.Use(NewCompressionMiddleware())
		logger.Info("Global Compression middleware configured")
	}
}
