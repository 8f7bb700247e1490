package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

// Decision is the outcome of a permission check. Profile is nil when the user
// has no usable profile.
type Decision struct {
	Allowed bool
	Profile *models.Profile
}

// PermissionResolver answers whether a user's profile grants an action on a
// module. Grants are read from the store on every call.
type PermissionResolver struct {
	store  PermissionStore
	logger *zap.Logger
}

func NewPermissionResolver(store PermissionStore, logger *zap.Logger) *PermissionResolver {
	return &PermissionResolver{store: store, logger: logger}
}

// Resolve checks a single (module, action) pair. Actions do not imply each
// other: a grant of A says nothing about C.
func (r *PermissionResolver) Resolve(ctx context.Context, user *models.Identity, module models.Module, action models.Action) (Decision, error) {
	profile, err := r.store.UserProfilePermissions(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apierr.ErrProfileNotFound) {
			r.logger.Warn("User has no profile, denying access",
				zap.Int64("user_id", user.ID),
				zap.String("module", string(module)),
				zap.String("action", string(action)))
			return Decision{}, nil
		}
		return Decision{}, fmt.Errorf("load permissions: %w", err)
	}

	for _, p := range profile.Permissoes {
		if strings.EqualFold(string(p.Modulo), string(module)) &&
			strings.EqualFold(string(p.Acao), string(action)) {
			return Decision{Allowed: true, Profile: profile}, nil
		}
	}

	return Decision{Profile: profile}, nil
}

// IsAuthorized is Resolve without the profile.
func (r *PermissionResolver) IsAuthorized(ctx context.Context, user *models.Identity, module models.Module, action models.Action) (bool, error) {
	d, err := r.Resolve(ctx, user, module, action)
	return d.Allowed, err
}
