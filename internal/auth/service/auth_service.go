package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/auth/validation"
	"github.com/victorgomez09/sgc/internal/notify"
)

// AuthConfig holds the configuration settings for the authentication service.
type AuthConfig struct {
	JWTSecret            []byte                    // Secret key used for signing tokens.
	TokenTTL             time.Duration             // Token lifetime. Zero issues tokens that never expire.
	MaxLoginAttempts     int                       // Consecutive failures that lock the account.
	TokenCleanupInterval time.Duration             // Interval of the revoked/expired token sweep. Zero disables it.
	TokenRetention       time.Duration             // How long revoked or expired tokens are kept before the sweep deletes them.
	PasswordPolicy       validation.PasswordPolicy // Rules for new passwords.
}

// LoginInput is a login attempt.
type LoginInput struct {
	CPF       string
	Senha     string
	ClientIP  string
	UserAgent string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	TokenType string
	User      models.PublicIdentity
	Record    *models.Token
}

// ResetPasswordInput identifies both the account being reset and the user
// performing the reset.
type ResetPasswordInput struct {
	TargetID    int64
	NewPassword string
	ExecutorID  int64
}

// ResetPasswordResult reports whether the target must change the password on next login.
type ResetPasswordResult struct {
	ResetRequired bool
}

// CreateUserInput is a new account as submitted by an administrator.
type CreateUserInput struct {
	NomeCompleto string
	Email        string
	CPF          string
	Senha        string
	PerfilID     *int64
}

// AuthService implements login, logout, token identification and password
// administration.
type AuthService struct {
	store     CredentialStore
	tokens    *TokenIssuer
	hasher    PasswordHasher
	notifier  notify.Notifier
	validator *validation.PasswordValidator
	logger    *zap.Logger
	config    AuthConfig

	dummyOnce sync.Once
	dummyHash string

	done chan struct{}
	wg   sync.WaitGroup
}

// NewAuthService wires the service and starts the token cleanup routine when
// an interval is configured. Close stops it.
func NewAuthService(
	store CredentialStore,
	tokens TokenStore,
	hasher PasswordHasher,
	notifier notify.Notifier,
	logger *zap.Logger,
	config AuthConfig,
) *AuthService {
	if config.MaxLoginAttempts <= 0 {
		config.MaxLoginAttempts = 3
	}
	if config.TokenRetention <= 0 {
		config.TokenRetention = 24 * time.Hour
	}
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}

	s := &AuthService{
		store:     store,
		tokens:    NewTokenIssuer(tokens, config.JWTSecret, config.TokenTTL, logger),
		hasher:    hasher,
		notifier:  notifier,
		validator: validation.NewPasswordValidator(config.PasswordPolicy),
		logger:    logger,
		config:    config,
		done:      make(chan struct{}),
	}

	if config.TokenCleanupInterval > 0 {
		s.wg.Add(1)
		go s.tokenCleanupRoutine(tokens)
	}

	return s
}

func (s *AuthService) GetConfig() AuthConfig {
	return s.config
}

// Close stops background work and waits for pending notifications.
func (s *AuthService) Close() {
	close(s.done)
	s.wg.Wait()
}

// tokenCleanupRoutine periodically deletes tokens revoked or expired longer
// than the retention window ago.
func (s *AuthService) tokenCleanupRoutine(tokens TokenStore) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := tokens.CleanupTokens(context.Background(), s.config.TokenRetention)
			if err != nil {
				s.logger.Error("Error cleaning up tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Debug("Tokens cleaned up", zap.Int64("deleted", n))
			}
		case <-s.done:
			return
		}
	}
}

// Authenticate runs the login state machine. The rejections are
// apierr.ErrUserNotFound, apierr.ErrAccountLocked, *apierr.BadPasswordError
// and apierr.ErrAccountLockedNow; any other error is a store failure.
func (s *AuthService) Authenticate(ctx context.Context, in LoginInput) (*LoginResult, error) {
	cpf := validation.Digits(in.CPF)

	user, err := s.store.GetUserByCPF(ctx, cpf)
	if err != nil {
		if errors.Is(err, apierr.ErrUserNotFound) {
			// Spend a hash comparison so unknown CPFs are not faster to reject.
			s.hasher.Verify(s.dummy(), in.Senha)
			return nil, apierr.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if user.Status != models.StatusActive {
		return nil, apierr.ErrAccountLocked
	}

	if !s.hasher.Verify(user.SenhaHash, in.Senha) {
		attempts, status, err := s.store.RegisterFailedLogin(ctx, user.ID, s.config.MaxLoginAttempts)
		if err != nil {
			return nil, fmt.Errorf("register failed login: %w", err)
		}

		if attempts >= s.config.MaxLoginAttempts || status != models.StatusActive {
			s.logger.Warn("Account locked after failed login attempts",
				zap.Int64("user_id", user.ID),
				zap.Int("attempts", attempts),
				zap.String("client_ip", in.ClientIP))
			s.afterLockout(user, attempts)
			return nil, apierr.ErrAccountLockedNow
		}

		return nil, &apierr.BadPasswordError{Attempt: attempts, Max: s.config.MaxLoginAttempts}
	}

	if err := s.store.ResetLoginAttempts(ctx, user.ID); err != nil {
		if errors.Is(err, apierr.ErrAccountLocked) {
			s.logger.Warn("Account locked during login", zap.Int64("user_id", user.ID))
			return nil, apierr.ErrAccountLocked
		}
		return nil, fmt.Errorf("reset login attempts: %w", err)
	}
	user.TentativasLogin = 0

	signed, record, err := s.tokens.Issue(ctx, user.ID, in.ClientIP, in.UserAgent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User authenticated",
		zap.Int64("user_id", user.ID),
		zap.String("client_ip", in.ClientIP))

	return &LoginResult{
		Token:     signed,
		TokenType: "Bearer",
		User:      user.Public(),
		Record:    record,
	}, nil
}

// afterLockout records the lockout and alerts support without holding up the
// response. Failures are only logged.
func (s *AuthService) afterLockout(user *models.Identity, attempts int) {
	at := time.Now().UTC()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		entry := &models.AuditLog{
			TabelaAfetada: "usuario",
			RegistroID:    user.ID,
			Acao:          models.AuditUpdate,
			Descricao: fmt.Sprintf("Conta de \"%s\" (%d) bloqueada após %d tentativas de login incorretas.",
				user.NomeCompleto, user.ID, attempts),
		}
		if err := s.store.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Error("Error creating audit log", zap.Int64("user_id", user.ID), zap.Error(err))
		}

		if err := s.notifier.AccountLocked(ctx, user, attempts, at); err != nil {
			s.logger.Error("Error sending lockout alert", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}()
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("sgc-timing-equalizer")
		if err != nil {
			s.logger.Warn("Failed to prepare dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Identify resolves a bearer token to its user and token record.
func (s *AuthService) Identify(ctx context.Context, signed string) (*models.Identity, *models.Token, error) {
	record, err := s.tokens.Validate(ctx, signed)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.store.GetUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, apierr.ErrUserNotFound) {
			return nil, nil, apierr.ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	return user, record, nil
}

// Logout revokes the token used by the current request only.
func (s *AuthService) Logout(ctx context.Context, tokenID int64) error {
	return s.tokens.Revoke(ctx, tokenID)
}

// ResetPassword sets a new password for the target, unblocks the account and
// flags a mandatory change when the executor is someone else.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) (*ResetPasswordResult, error) {
	target, err := s.store.GetUserByID(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidatePassword(in.NewPassword, target.CPF); err != nil {
		return nil, validation.Errors{"nova_senha": {err.Error()}}
	}

	executorName := "Sistema"
	if in.ExecutorID == target.ID {
		executorName = target.NomeCompleto
	} else if in.ExecutorID > 0 {
		executor, err := s.store.GetUserByID(ctx, in.ExecutorID)
		switch {
		case err == nil:
			executorName = executor.NomeCompleto
		case !errors.Is(err, apierr.ErrUserNotFound):
			return nil, fmt.Errorf("load executor: %w", err)
		}
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	resetRequired := in.ExecutorID != target.ID

	var actor *int64
	if in.ExecutorID > 0 {
		id := in.ExecutorID
		actor = &id
	}
	entry := &models.AuditLog{
		UserID: actor,
		Descricao: fmt.Sprintf("Senha redefinida por \"%s\" (%d) para \"%s\" (%d).",
			executorName, in.ExecutorID, target.NomeCompleto, target.ID),
	}

	if err := s.store.ResetPassword(ctx, target.ID, hash, resetRequired, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Password reset",
		zap.Int64("target_id", target.ID),
		zap.Int64("executor_id", in.ExecutorID),
		zap.Bool("reset_required", resetRequired))

	return &ResetPasswordResult{ResetRequired: resetRequired}, nil
}

// CreateUser hashes the password and stores a new active account.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput, actorID int64) (*models.Identity, error) {
	cpf := validation.Digits(in.CPF)
	if cpf == "" {
		return nil, validation.Errors{"cpf": {"O campo cpf deve conter dígitos."}}
	}
	if err := s.validator.ValidatePassword(in.Senha, cpf); err != nil {
		return nil, validation.Errors{"senha": {err.Error()}}
	}

	hash, err := s.hasher.Hash(in.Senha)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.Identity{
		NomeCompleto: in.NomeCompleto,
		Email:        in.Email,
		CPF:          cpf,
		SenhaHash:    hash,
		PerfilID:     in.PerfilID,
		Status:       models.StatusActive,
	}
	if err := s.store.CreateUser(ctx, user, actorID); err != nil {
		return nil, err
	}

	return user, nil
}
