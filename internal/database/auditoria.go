package database

import (
	"context"
	"database/sql"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

// CreateAuditLog records an entry outside of any other write, such as a
// lockout triggered by a failed login.
func (s *SQLiteDB) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.insertAudit(ctx, s.db, entry)
}

func scanAuditLog(row rowScanner) (*models.AuditLog, error) {
	var (
		entry   models.AuditLog
		details sql.NullString
	)
	err := row.Scan(&entry.ID, &entry.UserID, &entry.TabelaAfetada, &entry.RegistroID,
		&entry.Acao, &entry.Descricao, &details, &entry.DataHora)
	if err != nil {
		return nil, err
	}
	if details.Valid && details.String != "" {
		entry.Detalhes = []byte(details.String)
	}
	return &entry, nil
}

// ListAuditLogs returns the audit trail newest first.
func (s *SQLiteDB) ListAuditLogs(ctx context.Context) ([]models.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id_log, id_usuario, tabela_afetada, registro_id, acao,
               descricao, detalhes, data_hora
        FROM log_auditoria
        ORDER BY id_log DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *entry)
	}
	return logs, rows.Err()
}

func (s *SQLiteDB) GetAuditLog(ctx context.Context, id int64) (*models.AuditLog, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id_log, id_usuario, tabela_afetada, registro_id, acao,
               descricao, detalhes, data_hora
        FROM log_auditoria WHERE id_log = ?
    `, id)

	entry, err := scanAuditLog(row)
	if err != nil {
		return nil, notFound(err, apierr.ErrAuditLogNotFound)
	}
	return entry, nil
}
