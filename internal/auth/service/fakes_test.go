package service

import (
	"context"
	"strings"
	"sync"
	"time"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

// fakeHasher treats "hash:<password>" as the hash of password and counts
// verifications. beforeResult, when set, runs inside Verify.
type fakeHasher struct {
	mu           sync.Mutex
	verified     int
	beforeResult func()
}

func (h *fakeHasher) Hash(password string) (string, error) {
	return "hash:" + password, nil
}

func (h *fakeHasher) Verify(hash, password string) bool {
	h.mu.Lock()
	h.verified++
	hook := h.beforeResult
	h.mu.Unlock()
	if hook != nil {
		hook()
	}
	return hash == "hash:"+password
}

func (h *fakeHasher) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verified
}

type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*models.Identity
	tokens   map[string]*models.Token
	profiles map[int64]*models.Profile
	audit    []models.AuditLog
	nextID   int64
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*models.Identity),
		tokens:   make(map[string]*models.Token),
		profiles: make(map[int64]*models.Profile),
	}
}

func (f *fakeStore) addUser(u models.Identity) *models.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	f.users[u.ID] = &u
	return &u
}

func (f *fakeStore) user(id int64) models.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[id]
}

func (f *fakeStore) auditEntries() []models.AuditLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AuditLog(nil), f.audit...)
}

func (f *fakeStore) GetUserByCPF(_ context.Context, cpf string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.CPF == cpf {
			c := *u
			return &c, nil
		}
	}
	return nil, apierr.ErrUserNotFound
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apierr.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.Identity, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.CPF == u.CPF {
			return &apierr.FieldError{Field: "cpf", Message: "O valor informado já está em uso."}
		}
	}
	f.nextID++
	u.ID = f.nextID
	c := *u
	f.users[u.ID] = &c
	return nil
}

func (f *fakeStore) RegisterFailedLogin(_ context.Context, id int64, maxAttempts int) (int, models.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return 0, "", apierr.ErrUserNotFound
	}
	u.TentativasLogin++
	if u.TentativasLogin >= maxAttempts {
		u.Status = models.StatusInactive
	}
	return u.TentativasLogin, u.Status, nil
}

func (f *fakeStore) ResetLoginAttempts(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apierr.ErrUserNotFound
	}
	if u.Status != models.StatusActive {
		return apierr.ErrAccountLocked
	}
	u.TentativasLogin = 0
	return nil
}

func (f *fakeStore) ResetPassword(_ context.Context, id int64, hash string, resetRequired bool, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apierr.ErrUserNotFound
	}
	u.SenhaHash = hash
	u.TentativasLogin = 0
	u.Status = models.StatusActive
	u.PasswordResetRequired = resetRequired

	entry.TabelaAfetada = "usuario"
	entry.RegistroID = id
	entry.Acao = models.AuditUpdate
	f.audit = append(f.audit, *entry)
	return nil
}

func (f *fakeStore) CreateAuditLog(_ context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audit = append(f.audit, *entry)
	return nil
}

func (f *fakeStore) CreateToken(_ context.Context, token *models.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	token.ID = f.nextID
	c := *token
	f.tokens[token.JTI] = &c
	return nil
}

func (f *fakeStore) GetTokenByJTI(_ context.Context, jti string) (*models.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[jti]
	if !ok {
		return nil, apierr.ErrInvalidToken
	}
	c := *t
	return &c, nil
}

func (f *fakeStore) TouchToken(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.ID == id {
			t.LastUsedAt = at
		}
	}
	return nil
}

func (f *fakeStore) RevokeToken(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.ID == id && t.RevokedAt == nil {
			revoked := at
			t.RevokedAt = &revoked
		}
	}
	return nil
}

func (f *fakeStore) CleanupTokens(_ context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-retention)
	var n int64
	for jti, t := range f.tokens {
		if t.RevokedAt != nil && t.RevokedAt.Before(cutoff) {
			delete(f.tokens, jti)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) UserProfilePermissions(_ context.Context, userID int64) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[userID]
	if !ok || u.PerfilID == nil {
		return nil, apierr.ErrProfileNotFound
	}
	p, ok := f.profiles[*u.PerfilID]
	if !ok {
		return nil, apierr.ErrProfileNotFound
	}
	return p, nil
}

// grants builds a profile from "MODULE:ACTION" pairs.
func grants(id int64, name string, pairs ...string) *models.Profile {
	p := &models.Profile{ID: id, Nome: name, Status: models.StatusActive}
	for i, pair := range pairs {
		parts := strings.SplitN(pair, ":", 2)
		p.Permissoes = append(p.Permissoes, models.Permission{
			ID:     int64(i + 1),
			Modulo: models.Module(parts[0]),
			Acao:   models.Action(parts[1]),
		})
	}
	return p
}

type recordingNotifier struct {
	mu     sync.Mutex
	locked []int64
}

func (n *recordingNotifier) AccountLocked(_ context.Context, user *models.Identity, _ int, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.locked = append(n.locked, user.ID)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.locked)
}
