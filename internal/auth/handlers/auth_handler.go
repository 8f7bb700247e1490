package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/middleware"
	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/auth/service"
	"github.com/victorgomez09/sgc/internal/auth/validation"
	"github.com/victorgomez09/sgc/internal/cerr"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

type LoginResponse struct {
	Status    string                `json:"status"`
	Message   string                `json:"message"`
	Token     string                `json:"token"`
	TokenType string                `json:"token_type"`
	Usuario   models.PublicIdentity `json:"usuario"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	result, err := h.authService.Authenticate(r.Context(), service.LoginInput{
		CPF:       req.CPF,
		Senha:     req.Senha,
		ClientIP:  middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, apierr.ErrUserNotFound):
			cerr.WriteFail(w, http.StatusUnauthorized, "Credenciais inválidas (usuário não encontrado).")
		case errors.Is(err, apierr.ErrAccountLockedNow):
			cerr.WriteFail(w, http.StatusForbidden, fmt.Sprintf(
				"Conta bloqueada após %d tentativas incorretas. Contate o suporte.",
				h.authService.GetConfig().MaxLoginAttempts))
		default:
			cerr.WriteError(w, h.logger, err)
		}
		return
	}

	cerr.WriteJSON(w, http.StatusOK, LoginResponse{
		Status:    "success",
		Message:   "Autenticado com sucesso.",
		Token:     result.Token,
		TokenType: result.TokenType,
		Usuario:   result.User,
	})
}

// Logout revokes the token the request was authenticated with. Other sessions
// of the same user stay valid.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFrom(r.Context())
	if !ok {
		cerr.WriteFail(w, http.StatusUnauthorized, cerr.MsgUnauthenticated)
		return
	}

	if err := h.authService.Logout(r.Context(), token.ID); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "Logout realizado. Token revogado.", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		cerr.WriteFail(w, http.StatusUnauthorized, cerr.MsgUnauthenticated)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "", user.Public())
}
