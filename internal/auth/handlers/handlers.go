package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/victorgomez09/sgc/internal/auth/middleware"
	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/cerr"
)

// UserStore is the account administration surface of the database.
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.Identity, error)
	GetUserByID(ctx context.Context, id int64) (*models.Identity, error)
	UpdateUser(ctx context.Context, id int64, upd models.UserUpdate, actorID int64) (*models.Identity, error)
	DeleteUser(ctx context.Context, id int64, actorID int64) error
}

// ProfileStore manages profiles and their permission sets.
type ProfileStore interface {
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetProfile(ctx context.Context, id int64) (*models.Profile, error)
	CreateProfile(ctx context.Context, in models.ProfileInput, actorID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id int64, in models.ProfileInput, actorID int64) (*models.Profile, error)
	DeleteProfile(ctx context.Context, id int64, actorID int64) error
}

// PermissionCatalog manages the (module, action) catalogue.
type PermissionCatalog interface {
	ListPermissions(ctx context.Context) ([]models.Permission, error)
	GetPermission(ctx context.Context, id int64) (*models.Permission, error)
	CreatePermission(ctx context.Context, p *models.Permission, actorID int64) error
	UpdatePermission(ctx context.Context, p *models.Permission, actorID int64) error
	DeletePermission(ctx context.Context, id int64, actorID int64) error
}

// AuditReader exposes the audit trail.
type AuditReader interface {
	ListAuditLogs(ctx context.Context) ([]models.AuditLog, error)
	GetAuditLog(ctx context.Context, id int64) (*models.AuditLog, error)
}

// pathID parses the {id} route parameter. Malformed ids answer 404 since no
// record can match them.
func pathID(w http.ResponseWriter, r *http.Request, notFound string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		cerr.WriteFail(w, http.StatusNotFound, notFound)
		return 0, false
	}
	return id, true
}

// actorID is the authenticated user performing the request, or 0.
func actorID(r *http.Request) int64 {
	if user, ok := middleware.IdentityFrom(r.Context()); ok {
		return user.ID
	}
	return 0
}
