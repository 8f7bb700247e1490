package cerr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/validation"
)

// Retry header constants define the retry mechanism configuration.
const (
	RetryAfter    = "Retry-After"
	RetryAfterSec = 5
)

// Messages shared by the gate and the handlers.
const (
	MsgUnauthenticated = "Não autenticado. Token inválido ou ausente."
	MsgValidation      = "Erro de validação."
	MsgInternal        = "Erro interno do servidor."
	MsgTooManyRequests = "Muitas requisições. Tente novamente em instantes."
	MsgNotFound        = "Recurso não encontrado."
	MsgAccountLocked   = "Conta bloqueada. Contate o suporte."
)

// StatusClientClosedRequest is used when the client goes away before the
// response is produced.
const StatusClientClosedRequest = 499

// Response is the envelope of every API response.
type Response struct {
	Status     string              `json:"status"`
	Message    string              `json:"message,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	RetryAfter int                 `json:"retry_after,omitempty"`
}

// Classification is the HTTP rendering of an error.
type Classification struct {
	Status  int
	Message string
	Errors  map[string][]string
}

// Classify maps domain errors to status codes and client messages. Anything
// unrecognized is an internal failure.
func Classify(err error) Classification {
	var (
		verrs    validation.Errors
		fieldErr *apierr.FieldError
		badPass  *apierr.BadPasswordError
	)

	switch {
	case errors.As(err, &verrs):
		return Classification{http.StatusUnprocessableEntity, MsgValidation, verrs}
	case errors.As(err, &fieldErr):
		return Classification{http.StatusUnprocessableEntity, MsgValidation,
			map[string][]string{fieldErr.Field: {fieldErr.Message}}}
	case errors.As(err, &badPass):
		return Classification{Status: http.StatusUnauthorized,
			Message: fmt.Sprintf("Senha incorreta. Tentativa %d de %d.", badPass.Attempt, badPass.Max)}

	case errors.Is(err, apierr.ErrInvalidToken), errors.Is(err, apierr.ErrRevokedToken):
		return Classification{Status: http.StatusUnauthorized, Message: MsgUnauthenticated}
	case errors.Is(err, apierr.ErrAccountLocked), errors.Is(err, apierr.ErrAccountLockedNow):
		return Classification{Status: http.StatusForbidden, Message: MsgAccountLocked}

	case errors.Is(err, apierr.ErrUserNotFound):
		return Classification{Status: http.StatusNotFound, Message: "Usuário não encontrado."}
	case errors.Is(err, apierr.ErrProfileNotFound):
		return Classification{Status: http.StatusNotFound, Message: "Perfil não encontrado."}
	case errors.Is(err, apierr.ErrPermissionNotFound):
		return Classification{Status: http.StatusNotFound, Message: "Permissão não encontrada."}
	case errors.Is(err, apierr.ErrAuditLogNotFound):
		return Classification{Status: http.StatusNotFound, Message: "Log não encontrado."}
	case errors.Is(err, apierr.ErrClientNotFound):
		return Classification{Status: http.StatusNotFound, Message: "Cliente não encontrado."}

	case errors.Is(err, context.Canceled):
		return Classification{Status: StatusClientClosedRequest, Message: "Requisição cancelada pelo cliente."}
	}

	return Classification{Status: http.StatusInternalServerError, Message: MsgInternal}
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope. message and data are optional.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{Status: "success", Message: message, Data: data})
}

// WriteFail writes an error envelope carrying only a message.
func WriteFail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{Status: "error", Message: message})
}

// WriteValidation writes a 422 envelope with per-field messages.
func WriteValidation(w http.ResponseWriter, errs map[string][]string) {
	WriteJSON(w, http.StatusUnprocessableEntity, Response{Status: "error", Message: MsgValidation, Errors: errs})
}

// WriteRateLimited tells the client to retry later.
func WriteRateLimited(w http.ResponseWriter) {
	w.Header().Set(RetryAfter, strconv.Itoa(RetryAfterSec))
	WriteJSON(w, http.StatusTooManyRequests, Response{
		Status:     "error",
		Message:    MsgTooManyRequests,
		RetryAfter: RetryAfterSec,
	})
}

// WriteError classifies err and writes the error envelope. Internal failures
// are logged with their cause; the client only sees a generic message.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	c := Classify(err)
	if c.Status >= http.StatusInternalServerError && logger != nil {
		logger.Error("Request failed", zap.Error(err))
	}

	if c.Status == http.StatusUnprocessableEntity {
		WriteValidation(w, c.Errors)
		return
	}
	WriteJSON(w, c.Status, Response{Status: "error", Message: c.Message})
}
