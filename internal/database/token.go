package database

import (
	"context"
	"time"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

// CreateToken records an issued token by its jti.
func (s *SQLiteDB) CreateToken(ctx context.Context, token *models.Token) error {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO token_acesso (
            id_usuario, jti, expira_em, criado_em,
            ultimo_uso_em, ip_cliente, user_agent
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
    `, token.UserID, token.JTI, token.ExpiresAt, token.CreatedAt,
		token.LastUsedAt, token.ClientIP, token.UserAgent)
	if err != nil {
		return err
	}

	token.ID, err = res.LastInsertId()
	return err
}

// GetTokenByJTI retrieves a token record by its unique identifier.
func (s *SQLiteDB) GetTokenByJTI(ctx context.Context, jti string) (*models.Token, error) {
	var token models.Token
	err := s.db.QueryRowContext(ctx, `
        SELECT id_token, id_usuario, jti, expira_em, criado_em,
               ultimo_uso_em, revogado_em, ip_cliente, user_agent
        FROM token_acesso WHERE jti = ?
    `, jti).Scan(
		&token.ID, &token.UserID, &token.JTI, &token.ExpiresAt,
		&token.CreatedAt, &token.LastUsedAt, &token.RevokedAt,
		&token.ClientIP, &token.UserAgent,
	)
	if err != nil {
		return nil, notFound(err, apierr.ErrInvalidToken)
	}
	return &token, nil
}

// TouchToken updates the last use timestamp of a token.
func (s *SQLiteDB) TouchToken(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE token_acesso SET ultimo_uso_em = ? WHERE id_token = ?
    `, at.UTC(), id)
	return err
}

// RevokeToken marks a token as revoked. Revoking an already revoked token
// keeps the original revocation time.
func (s *SQLiteDB) RevokeToken(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE token_acesso SET revogado_em = ?
        WHERE id_token = ? AND revogado_em IS NULL
    `, at.UTC(), id)
	return err
}

// RevokeUserTokens revokes every active token of a user and returns how many
// were revoked.
func (s *SQLiteDB) RevokeUserTokens(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
        UPDATE token_acesso SET revogado_em = ?
        WHERE id_usuario = ? AND revogado_em IS NULL
    `, at.UTC(), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CleanupTokens deletes tokens that expired or were revoked before the
// retention cutoff.
func (s *SQLiteDB) CleanupTokens(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	res, err := s.db.ExecContext(ctx, `
        DELETE FROM token_acesso
        WHERE (expira_em IS NOT NULL AND expira_em < ?)
        OR (revogado_em IS NOT NULL AND revogado_em < ?)
    `, cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
