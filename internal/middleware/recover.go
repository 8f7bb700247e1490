package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/cerr"
	"github.com/victorgomez09/sgc/pkg/trace"
)

// RecoverMiddleware turns a panicking handler into a 500 envelope.
type RecoverMiddleware struct {
	logger *zap.Logger
}

func NewRecoverMiddleware(logger *zap.Logger) Middleware {
	return &RecoverMiddleware{logger: logger}
}

func (m *RecoverMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			m.logger.Error("Handler panicked",
				zap.String("request_id", trace.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			cerr.WriteFail(w, http.StatusInternalServerError, cerr.MsgInternal)
		}()

		next.ServeHTTP(w, r)
	})
}
