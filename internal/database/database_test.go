package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()

	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "sgc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *SQLiteDB, cpf string, profileID *int64) *models.Identity {
	t.Helper()

	u := &models.Identity{
		NomeCompleto: "Usuário " + cpf,
		Email:        cpf + "@sgc.local",
		CPF:          cpf,
		SenhaHash:    "hash",
		PerfilID:     profileID,
	}
	require.NoError(t, db.CreateUser(context.Background(), u, 0))
	return u
}

func seedPermission(t *testing.T, db *SQLiteDB, module models.Module, action models.Action) int64 {
	t.Helper()

	p := &models.Permission{Modulo: module, Acao: action}
	require.NoError(t, db.CreatePermission(context.Background(), p, 0))
	return p.ID
}

func TestUserLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := seedUser(t, db, "12345678901", nil)
	assert.NotZero(t, created.ID)

	got, err := db.GetUserByCPF(ctx, "12345678901")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Nil(t, got.PerfilID)

	_, err = db.GetUserByCPF(ctx, "00000000000")
	assert.ErrorIs(t, err, apierr.ErrUserNotFound)

	_, err = db.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, apierr.ErrUserNotFound)
}

func TestCreateUserDuplicateCPF(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "12345678901", nil)

	dup := &models.Identity{
		NomeCompleto: "Outro",
		Email:        "outro@sgc.local",
		CPF:          "12345678901",
		SenhaHash:    "hash",
	}
	err := db.CreateUser(context.Background(), dup, 0)

	var fe *apierr.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "cpf", fe.Field)
}

func TestCreateUserUnknownProfile(t *testing.T) {
	db := newTestDB(t)
	missing := int64(42)

	u := &models.Identity{
		NomeCompleto: "Sem perfil",
		Email:        "x@sgc.local",
		CPF:          "11111111111",
		SenhaHash:    "hash",
		PerfilID:     &missing,
	}
	err := db.CreateUser(context.Background(), u, 0)

	var fe *apierr.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "id_perfil", fe.Field)
}

func TestRegisterFailedLoginLocksOnThird(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "12345678901", nil)

	attempts, status, err := db.RegisterFailedLogin(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, models.StatusActive, status)

	attempts, status, err = db.RegisterFailedLogin(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, models.StatusActive, status)

	attempts, status, err = db.RegisterFailedLogin(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, models.StatusInactive, status)

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)
	assert.Equal(t, 3, got.TentativasLogin)
}

func TestRegisterFailedLoginConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "12345678901", nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := db.RegisterFailedLogin(ctx, u.ID, 3)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TentativasLogin)
	assert.Equal(t, models.StatusInactive, got.Status)
}

func TestResetLoginAttemptsRequiresActive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "12345678901", nil)

	_, _, err := db.RegisterFailedLogin(ctx, u.ID, 3)
	require.NoError(t, err)
	require.NoError(t, db.ResetLoginAttempts(ctx, u.ID))

	for i := 0; i < 3; i++ {
		_, _, err := db.RegisterFailedLogin(ctx, u.ID, 3)
		require.NoError(t, err)
	}
	assert.ErrorIs(t, db.ResetLoginAttempts(ctx, u.ID), apierr.ErrAccountLocked)

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)
	assert.Equal(t, 3, got.TentativasLogin)

	assert.ErrorIs(t, db.ResetLoginAttempts(ctx, 999), apierr.ErrUserNotFound)
}

func TestResetPasswordUnlocks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "12345678901", nil)

	for i := 0; i < 3; i++ {
		_, _, err := db.RegisterFailedLogin(ctx, u.ID, 3)
		require.NoError(t, err)
	}

	entry := &models.AuditLog{UserID: actorRef(7), Descricao: "reset"}
	require.NoError(t, db.ResetPassword(ctx, u.ID, "new-hash", true, entry))

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Zero(t, got.TentativasLogin)
	assert.True(t, got.PasswordResetRequired)
	assert.Equal(t, "new-hash", got.SenhaHash)

	logged, err := db.GetAuditLog(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "usuario", logged.TabelaAfetada)
	assert.Equal(t, u.ID, logged.RegistroID)
	require.NotNil(t, logged.UserID)
	assert.Equal(t, int64(7), *logged.UserID)

	err = db.ResetPassword(ctx, 999, "x", false, &models.AuditLog{})
	assert.ErrorIs(t, err, apierr.ErrUserNotFound)
}

func TestUpdateUserStatusResetsCounter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "12345678901", nil)

	for i := 0; i < 3; i++ {
		_, _, err := db.RegisterFailedLogin(ctx, u.ID, 3)
		require.NoError(t, err)
	}

	active := models.StatusActive
	got, err := db.UpdateUser(ctx, u.ID, models.UserUpdate{Status: &active}, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Zero(t, got.TentativasLogin)
}

func TestUserProfilePermissions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	consult := seedPermission(t, db, models.ModuleCliente, models.ActionConsult)
	seedPermission(t, db, models.ModuleCliente, models.ActionInsert)

	profile, err := db.CreateProfile(ctx, models.ProfileInput{
		Nome:          "Operador",
		PermissionIDs: []int64{consult, consult},
	}, 0)
	require.NoError(t, err)
	require.Len(t, profile.Permissoes, 1)

	u := seedUser(t, db, "12345678901", &profile.ID)

	got, err := db.UserProfilePermissions(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Operador", got.Nome)
	require.Len(t, got.Permissoes, 1)
	assert.Equal(t, models.ModuleCliente, got.Permissoes[0].Modulo)
	assert.Equal(t, models.ActionConsult, got.Permissoes[0].Acao)

	orphan := seedUser(t, db, "22222222222", nil)
	_, err = db.UserProfilePermissions(ctx, orphan.ID)
	assert.ErrorIs(t, err, apierr.ErrProfileNotFound)
}

func TestProfileWithoutPermissions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	profile, err := db.CreateProfile(ctx, models.ProfileInput{Nome: "Vazio"}, 0)
	require.NoError(t, err)
	u := seedUser(t, db, "12345678901", &profile.ID)

	got, err := db.UserProfilePermissions(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Permissoes)
}

func TestProfileUpdateSyncsPermissions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c := seedPermission(t, db, models.ModuleCliente, models.ActionConsult)
	i := seedPermission(t, db, models.ModuleCliente, models.ActionInsert)

	profile, err := db.CreateProfile(ctx, models.ProfileInput{Nome: "Operador", PermissionIDs: []int64{c}}, 0)
	require.NoError(t, err)

	updated, err := db.UpdateProfile(ctx, profile.ID, models.ProfileInput{
		Nome:          "Operador",
		Status:        models.StatusActive,
		PermissionIDs: []int64{i},
	}, 0)
	require.NoError(t, err)
	require.Len(t, updated.Permissoes, 1)
	assert.Equal(t, i, updated.Permissoes[0].ID)

	_, err = db.UpdateProfile(ctx, profile.ID, models.ProfileInput{
		Nome:          "Operador",
		Status:        models.StatusActive,
		PermissionIDs: []int64{999},
	}, 0)
	var fe *apierr.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "permissoes", fe.Field)

	profiles, err := db.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	require.Len(t, profiles[0].Permissoes, 1)
	assert.Equal(t, i, profiles[0].Permissoes[0].ID)
}

func TestDeleteProfileDetachesUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	profile, err := db.CreateProfile(ctx, models.ProfileInput{Nome: "Temporário"}, 0)
	require.NoError(t, err)
	u := seedUser(t, db, "12345678901", &profile.ID)

	require.NoError(t, db.DeleteProfile(ctx, profile.ID, 0))

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PerfilID)

	assert.ErrorIs(t, db.DeleteProfile(ctx, profile.ID, 0), apierr.ErrProfileNotFound)
}

func TestDuplicatePermission(t *testing.T) {
	db := newTestDB(t)
	seedPermission(t, db, models.ModuleCliente, models.ActionConsult)

	err := db.CreatePermission(context.Background(), &models.Permission{
		Modulo: models.ModuleCliente,
		Acao:   models.ActionConsult,
	}, 0)

	var fe *apierr.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "nome_modulo", fe.Field)
}

func TestTokenLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "12345678901", nil)

	now := time.Now().UTC()
	token := &models.Token{
		UserID:     u.ID,
		JTI:        "jti-1",
		CreatedAt:  now,
		LastUsedAt: now,
		ClientIP:   "127.0.0.1",
	}
	require.NoError(t, db.CreateToken(ctx, token))

	got, err := db.GetTokenByJTI(ctx, "jti-1")
	require.NoError(t, err)
	assert.Nil(t, got.ExpiresAt)
	assert.True(t, got.Active(now))

	require.NoError(t, db.RevokeToken(ctx, got.ID, now))
	require.NoError(t, db.RevokeToken(ctx, got.ID, now.Add(time.Hour)))

	got, err = db.GetTokenByJTI(ctx, "jti-1")
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	assert.False(t, got.Active(now))
	assert.WithinDuration(t, now, *got.RevokedAt, time.Second)

	_, err = db.GetTokenByJTI(ctx, "missing")
	assert.ErrorIs(t, err, apierr.ErrInvalidToken)
}

func TestCleanupTokens(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db, "12345678901", nil)

	old := time.Now().UTC().Add(-48 * time.Hour)
	revoked := &models.Token{UserID: u.ID, JTI: "old", CreatedAt: old, LastUsedAt: old}
	live := &models.Token{UserID: u.ID, JTI: "live", CreatedAt: old, LastUsedAt: old}
	require.NoError(t, db.CreateToken(ctx, revoked))
	require.NoError(t, db.CreateToken(ctx, live))
	require.NoError(t, db.RevokeToken(ctx, revoked.ID, old))

	n, err := db.CleanupTokens(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = db.GetTokenByJTI(ctx, "live")
	assert.NoError(t, err)
}

func TestClienteFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := &models.Cliente{RazaoSocial: "Restaurante Sabor", NomeFantasia: "Sabor", CnpjCpf: "11.111.111/0001-11"}
	b := &models.Cliente{RazaoSocial: "Pastelaria Central", CnpjCpf: "22.222.222/0001-22", Status: models.StatusInactive}
	require.NoError(t, db.CreateCliente(ctx, a, 1))
	require.NoError(t, db.CreateCliente(ctx, b, 1))

	all, err := db.ListClientes(ctx, models.ClienteFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)

	active, err := db.ListClientes(ctx, models.ClienteFilter{Status: models.StatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	found, err := db.ListClientes(ctx, models.ClienteFilter{Busca: "SABOR"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	byDoc, err := db.ListClientes(ctx, models.ClienteFilter{Busca: "22.222"})
	require.NoError(t, err)
	require.Len(t, byDoc, 1)
	assert.Equal(t, b.ID, byDoc[0].ID)

	dup := &models.Cliente{RazaoSocial: "Outro", CnpjCpf: a.CnpjCpf}
	var fe *apierr.FieldError
	require.ErrorAs(t, db.CreateCliente(ctx, dup, 1), &fe)
	assert.Equal(t, "cnpj_cpf", fe.Field)

	logs, err := db.ListAuditLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "cliente", logs[0].TabelaAfetada)
	assert.Greater(t, logs[0].ID, logs[1].ID)
	assert.NotEmpty(t, logs[0].Detalhes)
}

func TestDeleteCliente(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c := &models.Cliente{RazaoSocial: "Bar do Zé", CnpjCpf: "123"}
	require.NoError(t, db.CreateCliente(ctx, c, 1))
	require.NoError(t, db.DeleteCliente(ctx, c.ID, 1))

	_, err := db.GetCliente(ctx, c.ID)
	assert.ErrorIs(t, err, apierr.ErrClientNotFound)
	assert.ErrorIs(t, db.DeleteCliente(ctx, c.ID, 1), apierr.ErrClientNotFound)
}
