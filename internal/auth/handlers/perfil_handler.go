package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/auth/validation"
	"github.com/victorgomez09/sgc/internal/cerr"
)

const msgProfileNotFound = "Perfil não encontrado."

type ProfileHandler struct {
	store  ProfileStore
	logger *zap.Logger
}

func NewProfileHandler(store ProfileStore, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{store: store, logger: logger}
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.ListProfiles(r.Context())
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	cerr.WriteSuccess(w, http.StatusOK, "", profiles)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgProfileNotFound)
	if !ok {
		return
	}

	profile, err := h.store.GetProfile(r.Context(), id)
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}
	cerr.WriteSuccess(w, http.StatusOK, "", profile)
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := ProfileRequest{creating: true}
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	profile, err := h.store.CreateProfile(r.Context(), req.apply(nil), actorID(r))
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusCreated, "Perfil criado com sucesso.", profile)
}

// Update merges the request over the stored profile. The permission set is
// replaced only when permissoes is present.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgProfileNotFound)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	current, err := h.store.GetProfile(r.Context(), id)
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	profile, err := h.store.UpdateProfile(r.Context(), id, req.apply(current), actorID(r))
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "Perfil atualizado com sucesso.", profile)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgProfileNotFound)
	if !ok {
		return
	}

	if err := h.store.DeleteProfile(r.Context(), id, actorID(r)); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "Perfil excluído com sucesso.", nil)
}
