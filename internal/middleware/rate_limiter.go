package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/victorgomez09/sgc/internal/cerr"
)

// RateLimiterMiddleware caps the request rate of the whole API with a single
// token bucket. Per-client limits on login live in the auth gate.
type RateLimiterMiddleware struct {
	limiter *rate.Limiter
}

// NewRateLimiterMiddleware limits the API to rps requests per second with the
// given burst. Zero values fall back to 20 rps and a burst of 50.
func NewRateLimiterMiddleware(rps float64, burst int) Middleware {
	if burst == 0 {
		burst = 50
	}
	if rps == 0 {
		rps = 20
	}

	return &RateLimiterMiddleware{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow() {
			cerr.WriteRateLimited(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
