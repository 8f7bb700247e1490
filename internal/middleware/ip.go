package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/cerr"
)

// IPRestrictionMiddleware validates incoming requests against configured allowed IPs
type IPRestrictionMiddleware struct {
	allowed map[string]bool
	logger  *zap.Logger
}

// NewIPRestrictionMiddleware creates a new middleware for IP-based access
// control. An empty list allows every client.
func NewIPRestrictionMiddleware(allowedIPs []string, logger *zap.Logger) Middleware {
	allowed := make(map[string]bool, len(allowedIPs))
	for _, ip := range allowedIPs {
		allowed[ip] = true
	}
	return &IPRestrictionMiddleware{
		allowed: allowed,
		logger:  logger,
	}
}

// Middleware checks the client IP of the remote address and answers 403 for
// unlisted clients.
func (m *IPRestrictionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.allowed) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := getIPAddress(r)
		if m.allowed[clientIP] {
			next.ServeHTTP(w, r)
			return
		}

		m.logger.Warn("Access denied: IP not allowed", zap.String("client_ip", clientIP))
		cerr.WriteFail(w, http.StatusForbidden, "Acesso negado.")
	})
}
