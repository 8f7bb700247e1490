package middleware

import (
	"fmt"
	"net/http"

	"github.com/victorgomez09/sgc/internal/config"
)

type ServerSecurity struct {
	HSTS                  bool   // Enables HTTP Strict Transport Security (HSTS).
	HSTSMaxAge            int    // Seconds the browser should remember to use HTTPS only.
	HSTSIncludeSubDomains bool   // If true, applies HSTS policy to all subdomains.
	HSTSPreload           bool   // If true, includes the site in browsers' HSTS preload lists.
	FrameOptions          string // X-Frame-Options header value.
	ContentTypeOptions    bool   // Enables X-Content-Type-Options: nosniff.
	XSSProtection         bool   // Enables X-XSS-Protection.
}

func NewSecurityMiddleware(cfg *config.Security) *ServerSecurity {
	return &ServerSecurity{
		HSTS:                  cfg.HSTS,
		HSTSMaxAge:            cfg.HSTSMaxAge,
		HSTSIncludeSubDomains: cfg.HSTSIncludeSubDomains,
		HSTSPreload:           cfg.HSTSPreload,
		FrameOptions:          cfg.FrameOptions,
		ContentTypeOptions:    cfg.ContentTypeOptions,
		XSSProtection:         cfg.XSSProtection,
	}
}

// Middleware sets the configured security headers on every response.
func (s *ServerSecurity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.HSTS {
			value := fmt.Sprintf("max-age=%d", s.HSTSMaxAge)
			if s.HSTSIncludeSubDomains {
				value += "; includeSubDomains"
			}
			if s.HSTSPreload {
				value += "; preload"
			}
			w.Header().Set("Strict-Transport-Security", value)
		}

		if s.FrameOptions != "" {
			w.Header().Set("X-Frame-Options", s.FrameOptions)
		}

		if s.ContentTypeOptions {
			w.Header().Set("X-Content-Type-Options", "nosniff")
		}

		if s.XSSProtection {
			w.Header().Set("X-XSS-Protection", "1; mode=block")
		}

		next.ServeHTTP(w, r)
	})
}
