package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

// Schema for the SGC store: profiles and permissions, users, issued tokens,
// the audit log and clients. Foreign keys are enforced on every connection.
const schema = `
CREATE TABLE IF NOT EXISTS perfil (
    id_perfil INTEGER PRIMARY KEY AUTOINCREMENT,
    nome_perfil TEXT NOT NULL UNIQUE,         -- Display name, unique.
    descricao TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'ATIVO'      -- ATIVO | INATIVO
);

CREATE TABLE IF NOT EXISTS permissao (
    id_permissao INTEGER PRIMARY KEY AUTOINCREMENT,
    nome_modulo TEXT NOT NULL,                -- Registered module name (USUARIO, CLIENTE, ...).
    acao TEXT NOT NULL,                       -- I | A | E | C
    descricao TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS perfil_permissao (
    id_perfil INTEGER NOT NULL,
    id_permissao INTEGER NOT NULL,
    PRIMARY KEY (id_perfil, id_permissao),
    FOREIGN KEY (id_perfil) REFERENCES perfil (id_perfil) ON DELETE CASCADE,
    FOREIGN KEY (id_permissao) REFERENCES permissao (id_permissao) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS usuario (
    id_usuario INTEGER PRIMARY KEY AUTOINCREMENT,
    nome_completo TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    cpf TEXT NOT NULL UNIQUE,                 -- Digits only.
    senha_hash TEXT NOT NULL,                 -- bcrypt hash.
    id_perfil INTEGER,
    status TEXT NOT NULL DEFAULT 'ATIVO',
    tentativas_login INTEGER NOT NULL DEFAULT 0 CHECK (tentativas_login >= 0),
    password_reset_required INTEGER NOT NULL DEFAULT 0,
    data_criacao DATETIME NOT NULL,
    FOREIGN KEY (id_perfil) REFERENCES perfil (id_perfil) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS token_acesso (
    id_token INTEGER PRIMARY KEY AUTOINCREMENT,
    id_usuario INTEGER NOT NULL,
    jti TEXT NOT NULL UNIQUE,                 -- JWT ID carried in the signed token.
    expira_em DATETIME,                       -- NULL means the token never expires.
    criado_em DATETIME NOT NULL,
    ultimo_uso_em DATETIME NOT NULL,
    revogado_em DATETIME,                     -- Set on logout.
    ip_cliente TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (id_usuario) REFERENCES usuario (id_usuario) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS log_auditoria (
    id_log INTEGER PRIMARY KEY AUTOINCREMENT,
    id_usuario INTEGER,                       -- Acting user, NULL for system actions.
    tabela_afetada TEXT NOT NULL,
    registro_id INTEGER NOT NULL,
    acao TEXT NOT NULL,                       -- INSERT | UPDATE | DELETE
    descricao TEXT NOT NULL,
    detalhes TEXT,                            -- JSON payload.
    data_hora DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS cliente (
    id_cliente INTEGER PRIMARY KEY AUTOINCREMENT,
    razao_social TEXT NOT NULL,
    nome_fantasia TEXT NOT NULL DEFAULT '',
    cnpj_cpf TEXT NOT NULL UNIQUE,
    endereco TEXT NOT NULL DEFAULT '',
    numero TEXT NOT NULL DEFAULT '',
    bairro TEXT NOT NULL DEFAULT '',
    cidade TEXT NOT NULL DEFAULT '',
    estado TEXT NOT NULL DEFAULT '',
    cep TEXT NOT NULL DEFAULT '',
    nome_responsavel TEXT NOT NULL DEFAULT '',
    email_comercial TEXT NOT NULL DEFAULT '',
    telefone_celular TEXT NOT NULL DEFAULT '',
    telefone_fixo TEXT NOT NULL DEFAULT '',
    dias_funcionamento TEXT NOT NULL DEFAULT '',
    observacoes TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'ATIVO',
    data_criacao DATETIME NOT NULL,
    data_atualizacao DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_permissao_modulo_acao ON permissao(nome_modulo, acao);
CREATE INDEX IF NOT EXISTS idx_usuario_id_perfil ON usuario(id_perfil);
CREATE INDEX IF NOT EXISTS idx_token_acesso_id_usuario ON token_acesso(id_usuario);
CREATE INDEX IF NOT EXISTS idx_token_acesso_revogado_em ON token_acesso(revogado_em);
CREATE INDEX IF NOT EXISTS idx_log_auditoria_id_usuario ON log_auditoria(id_usuario);
CREATE INDEX IF NOT EXISTS idx_cliente_status ON cliente(status);
`

type SQLiteDB struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteDB opens the database at dbPath and applies the schema.
// A single connection is kept open so that writes are serialized.
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteDB{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// dsn enables foreign keys and a busy timeout on every connection the driver opens.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Ping is used by the health endpoint.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (s *SQLiteDB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// insertAudit writes one log_auditoria row using ex, so callers can place it
// in the same transaction as the change being recorded.
func (s *SQLiteDB) insertAudit(ctx context.Context, ex execer, entry *models.AuditLog) error {
	var details any
	if len(entry.Detalhes) > 0 {
		details = string(entry.Detalhes)
	}
	if entry.DataHora.IsZero() {
		entry.DataHora = s.now()
	}

	res, err := ex.ExecContext(ctx, `
        INSERT INTO log_auditoria (
            id_usuario, tabela_afetada, registro_id, acao, descricao, detalhes, data_hora
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
    `, entry.UserID, entry.TabelaAfetada, entry.RegistroID, entry.Acao,
		entry.Descricao, details, entry.DataHora)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	entry.ID, _ = res.LastInsertId()
	return nil
}

// auditDetails marshals v for the detalhes column. Marshal failures only lose the details.
func auditDetails(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// actorRef converts an acting user id into the nullable id_usuario column value.
func actorRef(actorID int64) *int64 {
	if actorID <= 0 {
		return nil
	}
	return &actorID
}

// constraintError maps SQLite constraint violations to field errors.
// fields maps a "table.column" fragment of the UNIQUE message to the input field name;
// fkField names the input field blamed for a foreign key violation.
func constraintError(err error, fields map[string]string, fkField string) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}

	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		msg := se.Error()
		for column, field := range fields {
			if strings.Contains(msg, column) {
				return &apierr.FieldError{Field: field, Message: "O valor informado já está em uso."}
			}
		}
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		if fkField != "" {
			return &apierr.FieldError{Field: fkField, Message: "O registro informado não existe."}
		}
	}
	return err
}

// notFound translates sql.ErrNoRows into the given domain error.
func notFound(err, domainErr error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domainErr
	}
	return err
}
