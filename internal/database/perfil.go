package database

import (
	"context"
	"database/sql"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

var profileUniqueFields = map[string]string{
	"perfil.nome_perfil": "nome_perfil",
}

// ListProfiles returns every profile with its permissions.
func (s *SQLiteDB) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id_perfil, nome_perfil, descricao, status
        FROM perfil
        ORDER BY id_perfil ASC
    `)
	if err != nil {
		return nil, err
	}

	profiles := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Nome, &p.Descricao, &p.Status); err != nil {
			rows.Close()
			return nil, err
		}
		p.Permissoes = []models.Permission{}
		profiles = append(profiles, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The pool holds a single connection, so the grants are read only after
	// the profile cursor is closed.
	grants, err := s.profileGrants(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if perms, ok := grants[profiles[i].ID]; ok {
			profiles[i].Permissoes = perms
		}
	}

	return profiles, nil
}

func (s *SQLiteDB) profileGrants(ctx context.Context) (map[int64][]models.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT pp.id_perfil, pm.id_permissao, pm.nome_modulo, pm.acao, pm.descricao
        FROM perfil_permissao pp
        JOIN permissao pm ON pm.id_permissao = pp.id_permissao
        ORDER BY pp.id_perfil, pm.nome_modulo, pm.acao
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grants := make(map[int64][]models.Permission)
	for rows.Next() {
		var (
			profileID int64
			perm      models.Permission
		)
		if err := rows.Scan(&profileID, &perm.ID, &perm.Modulo, &perm.Acao, &perm.Descricao); err != nil {
			return nil, err
		}
		grants[profileID] = append(grants[profileID], perm)
	}
	return grants, rows.Err()
}

// GetProfile retrieves a profile and its permissions.
func (s *SQLiteDB) GetProfile(ctx context.Context, id int64) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRowContext(ctx, `
        SELECT id_perfil, nome_perfil, descricao, status
        FROM perfil WHERE id_perfil = ?
    `, id).Scan(&p.ID, &p.Nome, &p.Descricao, &p.Status)
	if err != nil {
		return nil, notFound(err, apierr.ErrProfileNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT pm.id_permissao, pm.nome_modulo, pm.acao, pm.descricao
        FROM perfil_permissao pp
        JOIN permissao pm ON pm.id_permissao = pp.id_permissao
        WHERE pp.id_perfil = ?
        ORDER BY pm.nome_modulo, pm.acao
    `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p.Permissoes = []models.Permission{}
	for rows.Next() {
		var perm models.Permission
		if err := rows.Scan(&perm.ID, &perm.Modulo, &perm.Acao, &perm.Descricao); err != nil {
			return nil, err
		}
		p.Permissoes = append(p.Permissoes, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &p, nil
}

// CreateProfile inserts a profile and grants in.PermissionIDs.
func (s *SQLiteDB) CreateProfile(ctx context.Context, in models.ProfileInput, actorID int64) (*models.Profile, error) {
	if in.Status == "" {
		in.Status = models.StatusActive
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            INSERT INTO perfil (nome_perfil, descricao, status) VALUES (?, ?, ?)
        `, in.Nome, in.Descricao, in.Status)
		if err != nil {
			return constraintError(err, profileUniqueFields, "")
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		if err := syncGrants(ctx, tx, id, in.PermissionIDs); err != nil {
			return err
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "perfil",
			RegistroID:    id,
			Acao:          models.AuditInsert,
			Descricao:     "Perfil criado: " + in.Nome,
			Detalhes:      auditDetails(map[string]any{"permissoes": in.PermissionIDs}),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, id)
}

// UpdateProfile replaces the profile attributes and, when in.PermissionIDs is
// non-nil, its permission set.
func (s *SQLiteDB) UpdateProfile(ctx context.Context, id int64, in models.ProfileInput, actorID int64) (*models.Profile, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE perfil SET nome_perfil = ?, descricao = ?, status = ?
            WHERE id_perfil = ?
        `, in.Nome, in.Descricao, in.Status, id)
		if err != nil {
			return constraintError(err, profileUniqueFields, "")
		}
		if err := requireAffected(res, apierr.ErrProfileNotFound); err != nil {
			return err
		}

		if in.PermissionIDs != nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM perfil_permissao WHERE id_perfil = ?`, id); err != nil {
				return err
			}
			if err := syncGrants(ctx, tx, id, in.PermissionIDs); err != nil {
				return err
			}
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "perfil",
			RegistroID:    id,
			Acao:          models.AuditUpdate,
			Descricao:     "Perfil atualizado: " + in.Nome,
			Detalhes:      auditDetails(map[string]any{"permissoes": in.PermissionIDs}),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, id)
}

func syncGrants(ctx context.Context, tx *sql.Tx, profileID int64, permissionIDs []int64) error {
	seen := make(map[int64]bool, len(permissionIDs))
	for _, pid := range permissionIDs {
		if seen[pid] {
			continue
		}
		seen[pid] = true

		if _, err := tx.ExecContext(ctx, `
            INSERT INTO perfil_permissao (id_perfil, id_permissao) VALUES (?, ?)
        `, profileID, pid); err != nil {
			return constraintError(err, nil, "permissoes")
		}
	}
	return nil
}

// DeleteProfile removes a profile. Users that referenced it are left without one.
func (s *SQLiteDB) DeleteProfile(ctx context.Context, id int64, actorID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var name string
		if err := tx.QueryRowContext(ctx,
			`SELECT nome_perfil FROM perfil WHERE id_perfil = ?`, id,
		).Scan(&name); err != nil {
			return notFound(err, apierr.ErrProfileNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM perfil WHERE id_perfil = ?`, id); err != nil {
			return err
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "perfil",
			RegistroID:    id,
			Acao:          models.AuditDelete,
			Descricao:     "Perfil excluído: " + name,
		})
	})
}

// UserProfilePermissions loads the profile of a user together with its
// permission set in a single query. ErrProfileNotFound is returned when the
// user has no profile or references one that no longer exists.
func (s *SQLiteDB) UserProfilePermissions(ctx context.Context, userID int64) (*models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT p.id_perfil, p.nome_perfil, p.descricao, p.status,
               pm.id_permissao, pm.nome_modulo, pm.acao, pm.descricao
        FROM usuario u
        JOIN perfil p ON p.id_perfil = u.id_perfil
        LEFT JOIN perfil_permissao pp ON pp.id_perfil = p.id_perfil
        LEFT JOIN permissao pm ON pm.id_permissao = pp.id_permissao
        WHERE u.id_usuario = ?
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profile *models.Profile
	for rows.Next() {
		var (
			p         models.Profile
			permID    sql.NullInt64
			permMod   sql.NullString
			permAcao  sql.NullString
			permDescr sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Nome, &p.Descricao, &p.Status,
			&permID, &permMod, &permAcao, &permDescr); err != nil {
			return nil, err
		}

		if profile == nil {
			p.Permissoes = []models.Permission{}
			profile = &p
		}
		if permID.Valid {
			profile.Permissoes = append(profile.Permissoes, models.Permission{
				ID:        permID.Int64,
				Modulo:    models.Module(permMod.String),
				Acao:      models.Action(permAcao.String),
				Descricao: permDescr.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if profile == nil {
		return nil, apierr.ErrProfileNotFound
	}
	return profile, nil
}
