package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/auth/service"
	"github.com/victorgomez09/sgc/internal/auth/validation"
	"github.com/victorgomez09/sgc/internal/cerr"
)

const msgUserNotFound = "Usuário não encontrado."

// UserHandler serves the /usuarios resource. Account creation and password
// resets go through the auth service so that hashing and policy stay in one
// place.
type UserHandler struct {
	store       UserStore
	authService *service.AuthService
	logger      *zap.Logger
}

func NewUserHandler(store UserStore, authService *service.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		store:       store,
		authService: authService,
		logger:      logger,
	}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}
	if users == nil {
		users = []models.Identity{}
	}
	cerr.WriteSuccess(w, http.StatusOK, "", users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgUserNotFound)
	if !ok {
		return
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}
	cerr.WriteSuccess(w, http.StatusOK, "", user)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	user, err := h.authService.CreateUser(r.Context(), service.CreateUserInput{
		NomeCompleto: req.NomeCompleto,
		Email:        req.Email,
		CPF:          req.CPF,
		Senha:        req.Senha,
		PerfilID:     req.PerfilID,
	}, actorID(r))
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusCreated, "Usuário criado com sucesso!", user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgUserNotFound)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	user, err := h.store.UpdateUser(r.Context(), id, req.toUpdate(), actorID(r))
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "Usuário atualizado com sucesso!", user)
}

// UpdateStatus activates or deactivates an account. Activation also clears
// the failed login counter.
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgUserNotFound)
	if !ok {
		return
	}

	var req UserStatusRequest
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	status := models.Status(req.Status)
	user, err := h.store.UpdateUser(r.Context(), id, models.UserUpdate{Status: &status}, actorID(r))
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "Status do usuário atualizado com sucesso.", user)
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgUserNotFound)
	if !ok {
		return
	}

	var req ResetPasswordRequest
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	result, err := h.authService.ResetPassword(r.Context(), service.ResetPasswordInput{
		TargetID:    id,
		NewPassword: req.NovaSenha,
		ExecutorID:  actorID(r),
	})
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	message := "Senha redefinida com sucesso."
	if result.ResetRequired {
		message = "Senha redefinida com sucesso. O usuário precisará alterá-la no próximo login."
	}
	cerr.WriteSuccess(w, http.StatusOK, message, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgUserNotFound)
	if !ok {
		return
	}

	if err := h.store.DeleteUser(r.Context(), id, actorID(r)); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "Usuário removido com sucesso.", nil)
}
