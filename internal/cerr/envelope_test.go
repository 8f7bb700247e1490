package cerr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/validation"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", validation.Errors{"cpf": {"x"}}, http.StatusUnprocessableEntity, MsgValidation},
		{"field", &apierr.FieldError{Field: "email", Message: "dup"}, http.StatusUnprocessableEntity, MsgValidation},
		{"bad password", &apierr.BadPasswordError{Attempt: 2, Max: 3}, http.StatusUnauthorized, "Senha incorreta. Tentativa 2 de 3."},
		{"invalid token", apierr.ErrInvalidToken, http.StatusUnauthorized, MsgUnauthenticated},
		{"revoked token", apierr.ErrRevokedToken, http.StatusUnauthorized, MsgUnauthenticated},
		{"locked", apierr.ErrAccountLocked, http.StatusForbidden, MsgAccountLocked},
		{"user", fmt.Errorf("load: %w", apierr.ErrUserNotFound), http.StatusNotFound, "Usuário não encontrado."},
		{"client", apierr.ErrClientNotFound, http.StatusNotFound, "Cliente não encontrado."},
		{"canceled", context.Canceled, StatusClientClosedRequest, "Requisição cancelada pelo cliente."},
		{"other", errors.New("boom"), http.StatusInternalServerError, MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.err)
			assert.Equal(t, tt.status, c.Status)
			assert.Equal(t, tt.message, c.Message)
		})
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	rec := httptest.NewRecorder()

	WriteError(rec, zap.New(core), errors.New("sql: database is closed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, MsgInternal, body["message"])
	assert.NotContains(t, rec.Body.String(), "database is closed")
	assert.Equal(t, 1, logs.Len())
}

func TestWriteErrorFieldError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), &apierr.FieldError{Field: "cpf", Message: "O valor informado já está em uso."})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, MsgValidation, body["message"])
	errs := body["errors"].(map[string]any)
	assert.Equal(t, []any{"O valor informado já está em uso."}, errs["cpf"])
}

func TestWriteSuccessKeepsEmptyList(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, http.StatusOK, "", []string{})

	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.NotContains(t, body, "message")
	assert.Equal(t, []any{}, body["data"])
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestWriteRateLimited(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRateLimited(rec)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get(RetryAfter))
	assert.Equal(t, MsgTooManyRequests, decode(t, rec)["message"])
}
