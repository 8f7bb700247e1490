package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/auth/validation"
	"github.com/victorgomez09/sgc/internal/cerr"
)

const msgPermissionNotFound = "Permissão não encontrada."

type PermissionHandler struct {
	store  PermissionCatalog
	logger *zap.Logger
}

func NewPermissionHandler(store PermissionCatalog, logger *zap.Logger) *PermissionHandler {
	return &PermissionHandler{store: store, logger: logger}
}

func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	perms, err := h.store.ListPermissions(r.Context())
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}
	if perms == nil {
		perms = []models.Permission{}
	}
	cerr.WriteSuccess(w, http.StatusOK, "", perms)
}

func (h *PermissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgPermissionNotFound)
	if !ok {
		return
	}

	perm, err := h.store.GetPermission(r.Context(), id)
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}
	cerr.WriteSuccess(w, http.StatusOK, "", perm)
}

func (h *PermissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := PermissionRequest{creating: true}
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	var perm models.Permission
	req.apply(&perm)
	if err := h.store.CreatePermission(r.Context(), &perm, actorID(r)); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusCreated, "Permissão criada.", perm)
}

func (h *PermissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgPermissionNotFound)
	if !ok {
		return
	}

	var req PermissionRequest
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	perm, err := h.store.GetPermission(r.Context(), id)
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	req.apply(perm)
	if err := h.store.UpdatePermission(r.Context(), perm, actorID(r)); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "Permissão atualizada.", perm)
}

func (h *PermissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgPermissionNotFound)
	if !ok {
		return
	}

	if err := h.store.DeletePermission(r.Context(), id, actorID(r)); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "Permissão excluída.", nil)
}
