package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/database"
)

func newSQLiteStore(t *testing.T) *database.SQLiteDB {
	t.Helper()

	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "sgc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAuthenticateLockedWhileVerifying(t *testing.T) {
	db := newSQLiteStore(t)
	ctx := context.Background()

	u := &models.Identity{
		NomeCompleto: "Maria",
		Email:        "maria@sgc.local",
		CPF:          "12345678901",
		SenhaHash:    "hash:segredo",
	}
	require.NoError(t, db.CreateUser(ctx, u, 0))

	// Three wrong attempts from another client land while the correct
	// password is being checked.
	hasher := &fakeHasher{beforeResult: func() {
		for i := 0; i < 3; i++ {
			_, _, err := db.RegisterFailedLogin(ctx, u.ID, 3)
			require.NoError(t, err)
		}
	}}

	svc := NewAuthService(db, db, hasher, nil, zap.NewNop(), AuthConfig{JWTSecret: []byte("test-secret")})
	defer svc.Close()

	res, err := svc.Authenticate(ctx, LoginInput{CPF: u.CPF, Senha: "segredo"})
	assert.ErrorIs(t, err, apierr.ErrAccountLocked)
	assert.Nil(t, res)

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)
	assert.Equal(t, 3, got.TentativasLogin)
}

func TestResolverFollowsProfileEdits(t *testing.T) {
	db := newSQLiteStore(t)
	ctx := context.Background()

	consult := &models.Permission{Modulo: models.ModuleCliente, Acao: models.ActionConsult}
	require.NoError(t, db.CreatePermission(ctx, consult, 0))

	profile, err := db.CreateProfile(ctx, models.ProfileInput{Nome: "Operador"}, 0)
	require.NoError(t, err)

	u := &models.Identity{
		NomeCompleto: "Maria",
		Email:        "maria@sgc.local",
		CPF:          "12345678901",
		SenhaHash:    "hash",
		PerfilID:     &profile.ID,
	}
	require.NoError(t, db.CreateUser(ctx, u, 0))

	r := NewPermissionResolver(db, zap.NewNop())
	authorized := func() bool {
		t.Helper()
		ok, err := r.IsAuthorized(ctx, u, models.ModuleCliente, models.ActionConsult)
		require.NoError(t, err)
		return ok
	}

	assert.False(t, authorized())

	_, err = db.UpdateProfile(ctx, profile.ID, models.ProfileInput{
		Nome:          "Operador",
		Status:        models.StatusActive,
		PermissionIDs: []int64{consult.ID},
	}, 0)
	require.NoError(t, err)
	assert.True(t, authorized())

	_, err = db.UpdateProfile(ctx, profile.ID, models.ProfileInput{
		Nome:          "Operador",
		Status:        models.StatusActive,
		PermissionIDs: []int64{},
	}, 0)
	require.NoError(t, err)
	assert.False(t, authorized())
}
