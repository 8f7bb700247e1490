// Package cliente serves the /clientes resource, the business endpoints that
// sit behind the permission gate.
package cliente

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/auth/middleware"
	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/auth/validation"
	"github.com/victorgomez09/sgc/internal/cerr"
)

const msgNotFound = "Cliente não encontrado."

type Store interface {
	ListClientes(ctx context.Context, filter models.ClienteFilter) ([]models.Cliente, error)
	GetCliente(ctx context.Context, id int64) (*models.Cliente, error)
	CreateCliente(ctx context.Context, c *models.Cliente, actorID int64) error
	UpdateCliente(ctx context.Context, c *models.Cliente, actorID int64) error
	DeleteCliente(ctx context.Context, id int64, actorID int64) error
}

type Handler struct {
	store  Store
	logger *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// List supports ?status=ATIVO|INATIVO and ?busca=<text>.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ClienteFilter{
		Status: models.Status(strings.ToUpper(q.Get("status"))),
		Busca:  q.Get("busca"),
	}

	clientes, err := h.store.ListClientes(r.Context(), filter)
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}
	if clientes == nil {
		clientes = []models.Cliente{}
	}
	cerr.WriteSuccess(w, http.StatusOK, "Clientes listados com sucesso.", clientes)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.store.GetCliente(r.Context(), id)
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}
	cerr.WriteSuccess(w, http.StatusOK, "Cliente encontrado.", c)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req := Request{creating: true}
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	var c models.Cliente
	req.apply(&c)
	if err := h.store.CreateCliente(r.Context(), &c, actorID(r)); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusCreated, "Cliente criado com sucesso.", c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req Request
	if err := validation.DecodeAndValidate(r, &req); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	c, err := h.store.GetCliente(r.Context(), id)
	if err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	req.apply(c)
	if err := h.store.UpdateCliente(r.Context(), c, actorID(r)); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "Cliente atualizado com sucesso.", c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteCliente(r.Context(), id, actorID(r)); err != nil {
		cerr.WriteError(w, h.logger, err)
		return
	}

	cerr.WriteSuccess(w, http.StatusOK, "Cliente excluído com sucesso.", nil)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		cerr.WriteFail(w, http.StatusNotFound, msgNotFound)
		return 0, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	if user, ok := middleware.IdentityFrom(r.Context()); ok {
		return user.ID
	}
	return 0
}
