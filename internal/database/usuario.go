package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

const userColumns = `
    u.id_usuario, u.nome_completo, u.email, u.cpf, u.senha_hash, u.id_perfil,
    COALESCE(p.nome_perfil, ''), u.status, u.tentativas_login,
    u.password_reset_required, u.data_criacao`

var userUniqueFields = map[string]string{
	"usuario.email": "email",
	"usuario.cpf":   "cpf",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.Identity, error) {
	var u models.Identity
	err := row.Scan(
		&u.ID, &u.NomeCompleto, &u.Email, &u.CPF, &u.SenhaHash, &u.PerfilID,
		&u.NomePerfil, &u.Status, &u.TentativasLogin,
		&u.PasswordResetRequired, &u.DataCriacao,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByCPF retrieves a user by the digits-only CPF login key.
func (s *SQLiteDB) GetUserByCPF(ctx context.Context, cpf string) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT`+userColumns+`
        FROM usuario u LEFT JOIN perfil p ON p.id_perfil = u.id_perfil
        WHERE u.cpf = ?
    `, cpf)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, apierr.ErrUserNotFound)
	}
	return u, nil
}

// GetUserByID retrieves a user by id.
func (s *SQLiteDB) GetUserByID(ctx context.Context, id int64) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT`+userColumns+`
        FROM usuario u LEFT JOIN perfil p ON p.id_perfil = u.id_perfil
        WHERE u.id_usuario = ?
    `, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, apierr.ErrUserNotFound)
	}
	return u, nil
}

// ListUsers returns every user with its profile name, ordered by id.
func (s *SQLiteDB) ListUsers(ctx context.Context) ([]models.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT`+userColumns+`
        FROM usuario u LEFT JOIN perfil p ON p.id_perfil = u.id_perfil
        ORDER BY u.id_usuario ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.Identity{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CreateUser inserts u and records the creation on behalf of actorID.
// u.ID and u.DataCriacao are filled in on success.
func (s *SQLiteDB) CreateUser(ctx context.Context, u *models.Identity, actorID int64) error {
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	u.DataCriacao = s.now()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            INSERT INTO usuario (
                nome_completo, email, cpf, senha_hash, id_perfil, status,
                tentativas_login, password_reset_required, data_criacao
            ) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
        `, u.NomeCompleto, u.Email, u.CPF, u.SenhaHash, u.PerfilID, u.Status,
			u.PasswordResetRequired, u.DataCriacao)
		if err != nil {
			return constraintError(err, userUniqueFields, "id_perfil")
		}
		if u.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "usuario",
			RegistroID:    u.ID,
			Acao:          models.AuditInsert,
			Descricao:     "Usuário criado: " + u.NomeCompleto,
		})
	})
	return err
}

// UpdateUser applies the non-nil fields of upd. Setting status to ATIVO also
// clears the failed login counter.
func (s *SQLiteDB) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate, actorID int64) (*models.Identity, error) {
	sets := []string{}
	args := []any{}
	if upd.NomeCompleto != nil {
		sets = append(sets, "nome_completo = ?")
		args = append(args, *upd.NomeCompleto)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *upd.Email)
	}
	if upd.PerfilID != nil {
		sets = append(sets, "id_perfil = ?")
		args = append(args, *upd.PerfilID)
	}
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
		if *upd.Status == models.StatusActive {
			sets = append(sets, "tentativas_login = 0")
		}
	}

	var name string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT nome_completo FROM usuario WHERE id_usuario = ?`, id,
		).Scan(&name); err != nil {
			return notFound(err, apierr.ErrUserNotFound)
		}

		if len(sets) > 0 {
			query := "UPDATE usuario SET " + strings.Join(sets, ", ") + " WHERE id_usuario = ?"
			if _, err := tx.ExecContext(ctx, query, append(args, id)...); err != nil {
				return constraintError(err, userUniqueFields, "id_perfil")
			}
		}
		if upd.NomeCompleto != nil {
			name = *upd.NomeCompleto
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "usuario",
			RegistroID:    id,
			Acao:          models.AuditUpdate,
			Descricao:     "Usuário atualizado: " + name,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, id)
}

// DeleteUser removes a user. Tokens issued to the user are removed with it.
func (s *SQLiteDB) DeleteUser(ctx context.Context, id int64, actorID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var name string
		if err := tx.QueryRowContext(ctx,
			`SELECT nome_completo FROM usuario WHERE id_usuario = ?`, id,
		).Scan(&name); err != nil {
			return notFound(err, apierr.ErrUserNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM usuario WHERE id_usuario = ?`, id); err != nil {
			return err
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "usuario",
			RegistroID:    id,
			Acao:          models.AuditDelete,
			Descricao:     "Usuário excluído: " + name,
		})
	})
}

// RegisterFailedLogin increments the failed login counter and, when the new
// value reaches maxAttempts, flips the status to INATIVO in the same statement.
// It returns the post-increment counter and resulting status.
func (s *SQLiteDB) RegisterFailedLogin(ctx context.Context, id int64, maxAttempts int) (int, models.Status, error) {
	var (
		attempts int
		status   models.Status
	)
	err := s.db.QueryRowContext(ctx, `
        UPDATE usuario SET
            tentativas_login = tentativas_login + 1,
            status = CASE WHEN tentativas_login + 1 >= ? THEN 'INATIVO' ELSE status END
        WHERE id_usuario = ?
        RETURNING tentativas_login, status
    `, maxAttempts, id).Scan(&attempts, &status)
	if err != nil {
		return 0, "", notFound(err, apierr.ErrUserNotFound)
	}
	return attempts, status, nil
}

// ResetLoginAttempts clears the failed login counter after a successful login.
// Only an active account is touched; an account locked in the meantime yields
// apierr.ErrAccountLocked.
func (s *SQLiteDB) ResetLoginAttempts(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE usuario SET tentativas_login = 0 WHERE id_usuario = ? AND status = 'ATIVO'`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM usuario WHERE id_usuario = ?`, id).Scan(&exists)
	if err != nil {
		return notFound(err, apierr.ErrUserNotFound)
	}
	return apierr.ErrAccountLocked
}

// ResetPassword replaces the password hash, unblocks the account and sets the
// must-change flag, recording entry in the same transaction.
func (s *SQLiteDB) ResetPassword(ctx context.Context, id int64, hash string, resetRequired bool, entry *models.AuditLog) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE usuario SET
                senha_hash = ?,
                tentativas_login = 0,
                status = 'ATIVO',
                password_reset_required = ?
            WHERE id_usuario = ?
        `, hash, resetRequired, id)
		if err != nil {
			return err
		}
		if err := requireAffected(res, apierr.ErrUserNotFound); err != nil {
			return err
		}

		entry.TabelaAfetada = "usuario"
		entry.RegistroID = id
		entry.Acao = models.AuditUpdate
		return s.insertAudit(ctx, tx, entry)
	})
}

func requireAffected(res sql.Result, domainErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domainErr
	}
	return nil
}
