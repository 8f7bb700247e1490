package service

import (
	"context"
	"time"

	"github.com/victorgomez09/sgc/internal/auth/models"
)

// CredentialStore is the part of the database the login state machine and the
// password reset depend on.
type CredentialStore interface {
	GetUserByCPF(ctx context.Context, cpf string) (*models.Identity, error)
	GetUserByID(ctx context.Context, id int64) (*models.Identity, error)
	CreateUser(ctx context.Context, u *models.Identity, actorID int64) error
	RegisterFailedLogin(ctx context.Context, id int64, maxAttempts int) (int, models.Status, error)
	ResetLoginAttempts(ctx context.Context, id int64) error
	ResetPassword(ctx context.Context, id int64, hash string, resetRequired bool, entry *models.AuditLog) error
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// TokenStore persists issued tokens by jti.
type TokenStore interface {
	CreateToken(ctx context.Context, token *models.Token) error
	GetTokenByJTI(ctx context.Context, jti string) (*models.Token, error)
	TouchToken(ctx context.Context, id int64, at time.Time) error
	RevokeToken(ctx context.Context, id int64, at time.Time) error
	CleanupTokens(ctx context.Context, retention time.Duration) (int64, error)
}

// PermissionStore loads the profile and grants of a user.
type PermissionStore interface {
	UserProfilePermissions(ctx context.Context, userID int64) (*models.Profile, error)
}
