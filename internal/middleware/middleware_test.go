package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/victorgomez09/sgc/internal/cerr"
	"github.com/victorgomez09/sgc/internal/config"
	"github.com/victorgomez09/sgc/pkg/trace"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	cerr.WriteSuccess(w, http.StatusOK, "ok", nil)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return Func(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	chain := NewMiddlewareChain(mark("a"), mark("b"))
	chain.Use(mark("c"))
	serve(chain.Then(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestConfiguredMiddlewares(t *testing.T) {
	chain := NewMiddlewareChain()
	chain.AddConfiguredMiddlewares(config.Middleware{
		Security: &config.Security{FrameOptions: "DENY", ContentTypeOptions: true},
		CORS:     &config.CORS{AllowedOrigins: []string{"https://app.example.com"}},
	}, zap.NewNop())
	h := chain.Then(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := serve(h, req)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/clientes", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = serve(h, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGlobalRateLimiter(t *testing.T) {
	h := NewRateLimiterMiddleware(1, 1).Middleware(okHandler)

	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get(cerr.RetryAfter))
}

func TestCompression(t *testing.T) {
	h := NewCompressionMiddleware().Middleware(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := serve(h, req)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","message":"ok"}`, string(body))
}

func TestRecover(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := NewRecoverMiddleware(zap.New(core)).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Erro interno do servidor."}`, rec.Body.String())
	assert.Equal(t, 1, logs.Len())
}

func TestIPRestriction(t *testing.T) {
	h := NewIPRestrictionMiddleware([]string{"10.0.0.1"}, zap.NewNop()).Middleware(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	assert.Equal(t, http.StatusForbidden, serve(h, req).Code)

	open := NewIPRestrictionMiddleware(nil, zap.NewNop()).Middleware(okHandler)
	assert.Equal(t, http.StatusOK, serve(open, req).Code)
}

func TestLoggingLevelsAndRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lm := NewLoggingMiddleware(zap.New(core),
		WithHeaders(true),
		WithExcludePaths([]string{"/health"}))

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cerr.WriteFail(w, http.StatusNotFound, "x")
	})
	h := trace.WithRequestID().Middleware(lm.Middleware(notFound))

	req := httptest.NewRequest(http.MethodGet, "/clientes/9", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set(trace.HeaderRequestID, "req-1")
	serve(h, req)

	serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, int64(404), fields["status"])
	headers := fields["headers"].(map[string]string)
	assert.Equal(t, "****", headers["Authorization"])
}
