package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/victorgomez09/sgc/pkg/trace"
)

type LoggingMiddleware struct {
	logger         *zap.Logger
	logLevel       zapcore.Level
	includeHeaders bool
	includeQuery   bool
	excludePaths   []string
}

type LoggingOption func(*LoggingMiddleware)

func WithLogLevel(level zapcore.Level) LoggingOption {
	return func(l *LoggingMiddleware) {
		l.logLevel = level
	}
}

// enables logging of request headers. Authorization is always masked.
func WithHeaders(enabled bool) LoggingOption {
	return func(l *LoggingMiddleware) {
		l.includeHeaders = enabled
	}
}

// enables logging of query parameters.
func WithQueryParams(enabled bool) LoggingOption {
	return func(l *LoggingMiddleware) {
		l.includeQuery = enabled
	}
}

// excludes paths with the given prefixes from logging.
func WithExcludePaths(paths []string) LoggingOption {
	return func(l *LoggingMiddleware) {
		l.excludePaths = paths
	}
}

func NewLoggingMiddleware(logger *zap.Logger, opts ...LoggingOption) *LoggingMiddleware {
	lm := &LoggingMiddleware{
		logger:       logger,
		logLevel:     zapcore.InfoLevel,
		excludePaths: []string{},
	}

	for _, opt := range opts {
		opt(lm)
	}

	return lm
}

// wraps http.ResponseWriter to capture status code and response size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += int64(size)
	return size, err
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (l *LoggingMiddleware) shouldExcludePath(path string) bool {
	for _, excludePath := range l.excludePaths {
		if strings.HasPrefix(path, excludePath) {
			return true
		}
	}
	return false
}

func (l *LoggingMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.shouldExcludePath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)

		fields := make([]zap.Field, 0, 10)
		fields = append(fields,
			zap.String("request_id", trace.GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("duration", duration),
			zap.String("ip", getIPAddress(r)),
			zap.String("user_agent", r.UserAgent()),
			zap.Int64("response_size", rw.size),
		)

		if l.includeQuery && len(r.URL.RawQuery) > 0 {
			queryParams := make(map[string]string)
			for key, values := range r.URL.Query() {
				queryParams[key] = strings.Join(values, ",")
			}
			fields = append(fields, zap.Any("query_params", queryParams))
		}

		if l.includeHeaders {
			headers := make(map[string]string)
			for key, values := range r.Header {
				if strings.EqualFold(key, "Authorization") {
					headers[key] = "****"
					continue
				}
				headers[key] = strings.Join(values, ",")
			}
			fields = append(fields, zap.Any("headers", headers))
		}

		switch {
		case rw.status >= 500:
			l.logger.Error("Server error", fields...)
		case rw.status >= 400:
			l.logger.Warn("Client error", fields...)
		default:
			if ce := l.logger.Check(l.logLevel, "Request completed"); ce != nil {
				ce.Write(fields...)
			}
		}
	})
}

// getIPAddress is the remote address without the port. Forwarding headers are
// only honoured through RealIP, which rewrites RemoteAddr upstream.
func getIPAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
