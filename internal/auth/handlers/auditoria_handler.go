package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/cerr"
)

// AuditHandler is read-only. Audit rows are written by the store alongside
// the change they describe.
type AuditHandler struct {
	store  AuditReader
	logger *zap.Logger
}

func NewAuditHandler(store AuditReader, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{store: store, logger: logger}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.ListAuditLogs(r.Context())
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	cerr.WriteSuccess(w, http.StatusOK, "", logs)
}

func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Log não encontrado.")
	if !ok {
		return
	}

	entry, err := h.store.GetAuditLog(r.Context(), id)
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}
	cerr.WriteSuccess(w, http.StatusOK, "", entry)
}
