package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

// Claims carried by an access token. The jti is the handle used for
// revocation; the signature only proves the token was issued here.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 bearer tokens and tracks them by jti so that they
// can be revoked individually. A user may hold any number of tokens.
type TokenIssuer struct {
	store  TokenStore
	secret []byte
	ttl    time.Duration // Zero means tokens never expire.
	logger *zap.Logger
	now    func() time.Time
}

func NewTokenIssuer(store TokenStore, secret []byte, ttl time.Duration, logger *zap.Logger) *TokenIssuer {
	return &TokenIssuer{
		store:  store,
		secret: secret,
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates and records a token for userID and returns its signed form.
func (ti *TokenIssuer) Issue(ctx context.Context, userID int64, clientIP, userAgent string) (string, *models.Token, error) {
	jti, err := generateRandomString(32)
	if err != nil {
		return "", nil, err
	}

	now := ti.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       jti,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	record := &models.Token{
		UserID:     userID,
		JTI:        jti,
		CreatedAt:  now,
		LastUsedAt: now,
		ClientIP:   clientIP,
		UserAgent:  userAgent,
	}
	if ti.ttl > 0 {
		exp := now.Add(ti.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
		record.ExpiresAt = &exp
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	if err := ti.store.CreateToken(ctx, record); err != nil {
		return "", nil, fmt.Errorf("store token: %w", err)
	}

	return signed, record, nil
}

// Validate checks the signature, then the stored record: it must exist, belong
// to the claimed user, not be revoked and not be expired.
func (ti *TokenIssuer) Validate(ctx context.Context, signed string) (*models.Token, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, apierr.ErrInvalidToken
	}

	record, err := ti.store.GetTokenByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, apierr.ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("load token: %w", err)
	}

	if record.UserID != claims.UserID {
		return nil, apierr.ErrInvalidToken
	}
	if record.RevokedAt != nil {
		return nil, apierr.ErrRevokedToken
	}

	now := ti.now()
	if !record.Active(now) {
		return nil, apierr.ErrInvalidToken
	}

	if err := ti.store.TouchToken(ctx, record.ID, now); err != nil {
		ti.logger.Warn("Failed to update token last use", zap.Int64("token_id", record.ID), zap.Error(err))
	}
	record.LastUsedAt = now

	return record, nil
}

// Revoke invalidates one token. Other tokens of the same user stay valid.
func (ti *TokenIssuer) Revoke(ctx context.Context, tokenID int64) error {
	return ti.store.RevokeToken(ctx, tokenID, ti.now())
}

// generateRandomString creates a secure random string of the specified length.
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(bytes)[:length], nil
}
