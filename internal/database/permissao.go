package database

import (
	"context"
	"database/sql"
	"fmt"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

var permissionUniqueFields = map[string]string{
	"permissao.nome_modulo": "nome_modulo",
}

func (s *SQLiteDB) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id_permissao, nome_modulo, acao, descricao
        FROM permissao
        ORDER BY id_permissao ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []models.Permission{}
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Modulo, &p.Acao, &p.Descricao); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (s *SQLiteDB) GetPermission(ctx context.Context, id int64) (*models.Permission, error) {
	var p models.Permission
	err := s.db.QueryRowContext(ctx, `
        SELECT id_permissao, nome_modulo, acao, descricao
        FROM permissao WHERE id_permissao = ?
    `, id).Scan(&p.ID, &p.Modulo, &p.Acao, &p.Descricao)
	if err != nil {
		return nil, notFound(err, apierr.ErrPermissionNotFound)
	}
	return &p, nil
}

// CreatePermission inserts p. A duplicate (module, action) pair is reported
// against nome_modulo.
func (s *SQLiteDB) CreatePermission(ctx context.Context, p *models.Permission, actorID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            INSERT INTO permissao (nome_modulo, acao, descricao) VALUES (?, ?, ?)
        `, p.Modulo, p.Acao, p.Descricao)
		if err != nil {
			return constraintError(err, permissionUniqueFields, "")
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "permissao",
			RegistroID:    p.ID,
			Acao:          models.AuditInsert,
			Descricao:     fmt.Sprintf("Permissão criada: %s:%s", p.Modulo, p.Acao),
		})
	})
}

func (s *SQLiteDB) UpdatePermission(ctx context.Context, p *models.Permission, actorID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE permissao SET nome_modulo = ?, acao = ?, descricao = ?
            WHERE id_permissao = ?
        `, p.Modulo, p.Acao, p.Descricao, p.ID)
		if err != nil {
			return constraintError(err, permissionUniqueFields, "")
		}
		if err := requireAffected(res, apierr.ErrPermissionNotFound); err != nil {
			return err
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "permissao",
			RegistroID:    p.ID,
			Acao:          models.AuditUpdate,
			Descricao:     fmt.Sprintf("Permissão atualizada: %s:%s", p.Modulo, p.Acao),
		})
	})
}

// DeletePermission removes a permission and revokes it from every profile.
func (s *SQLiteDB) DeletePermission(ctx context.Context, id int64, actorID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var module, action string
		if err := tx.QueryRowContext(ctx,
			`SELECT nome_modulo, acao FROM permissao WHERE id_permissao = ?`, id,
		).Scan(&module, &action); err != nil {
			return notFound(err, apierr.ErrPermissionNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM permissao WHERE id_permissao = ?`, id); err != nil {
			return err
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "permissao",
			RegistroID:    id,
			Acao:          models.AuditDelete,
			Descricao:     fmt.Sprintf("Permissão excluída: %s:%s", module, action),
		})
	})
}
