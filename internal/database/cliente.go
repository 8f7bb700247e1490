package database

import (
	"context"
	"database/sql"
	"strings"

	apierr "github.com/victorgomez09/sgc/internal/auth"
	"github.com/victorgomez09/sgc/internal/auth/models"
)

const clienteColumns = `
    id_cliente, razao_social, nome_fantasia, cnpj_cpf, endereco, numero,
    bairro, cidade, estado, cep, nome_responsavel, email_comercial,
    telefone_celular, telefone_fixo, dias_funcionamento, observacoes,
    status, data_criacao, data_atualizacao`

var clienteUniqueFields = map[string]string{
	"cliente.cnpj_cpf": "cnpj_cpf",
}

func scanCliente(row rowScanner) (*models.Cliente, error) {
	var c models.Cliente
	err := row.Scan(
		&c.ID, &c.RazaoSocial, &c.NomeFantasia, &c.CnpjCpf, &c.Endereco, &c.Numero,
		&c.Bairro, &c.Cidade, &c.Estado, &c.CEP, &c.NomeResponsavel, &c.EmailComercial,
		&c.TelefoneCelular, &c.TelefoneFixo, &c.DiasFuncionamento, &c.Observacoes,
		&c.Status, &c.DataCriacao, &c.DataAtualizacao,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClientes returns clients matching filter, most recently created first.
func (s *SQLiteDB) ListClientes(ctx context.Context, filter models.ClienteFilter) ([]models.Cliente, error) {
	where := []string{}
	args := []any{}

	if filter.Status.Valid() {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if busca := strings.TrimSpace(filter.Busca); busca != "" {
		like := "%" + strings.ToLower(busca) + "%"
		where = append(where, "(LOWER(razao_social) LIKE ? OR LOWER(nome_fantasia) LIKE ? OR cnpj_cpf LIKE ?)")
		args = append(args, like, like, "%"+busca+"%")
	}

	query := "SELECT" + clienteColumns + " FROM cliente"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY data_criacao DESC, id_cliente DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clientes := []models.Cliente{}
	for rows.Next() {
		c, err := scanCliente(rows)
		if err != nil {
			return nil, err
		}
		clientes = append(clientes, *c)
	}
	return clientes, rows.Err()
}

func (s *SQLiteDB) GetCliente(ctx context.Context, id int64) (*models.Cliente, error) {
	row := s.db.QueryRowContext(ctx, "SELECT"+clienteColumns+" FROM cliente WHERE id_cliente = ?", id)

	c, err := scanCliente(row)
	if err != nil {
		return nil, notFound(err, apierr.ErrClientNotFound)
	}
	return c, nil
}

// CreateCliente inserts c and records the submitted fields in the audit log.
func (s *SQLiteDB) CreateCliente(ctx context.Context, c *models.Cliente, actorID int64) error {
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	c.DataCriacao = s.now()
	c.DataAtualizacao = c.DataCriacao

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            INSERT INTO cliente (
                razao_social, nome_fantasia, cnpj_cpf, endereco, numero,
                bairro, cidade, estado, cep, nome_responsavel, email_comercial,
                telefone_celular, telefone_fixo, dias_funcionamento, observacoes,
                status, data_criacao, data_atualizacao
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        `, c.RazaoSocial, c.NomeFantasia, c.CnpjCpf, c.Endereco, c.Numero,
			c.Bairro, c.Cidade, c.Estado, c.CEP, c.NomeResponsavel, c.EmailComercial,
			c.TelefoneCelular, c.TelefoneFixo, c.DiasFuncionamento, c.Observacoes,
			c.Status, c.DataCriacao, c.DataAtualizacao)
		if err != nil {
			return constraintError(err, clienteUniqueFields, "")
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "cliente",
			RegistroID:    c.ID,
			Acao:          models.AuditInsert,
			Descricao:     "Criação de cliente",
			Detalhes:      auditDetails(c),
		})
	})
}

// UpdateCliente replaces every editable field of the client c.ID.
func (s *SQLiteDB) UpdateCliente(ctx context.Context, c *models.Cliente, actorID int64) error {
	c.DataAtualizacao = s.now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE cliente SET
                razao_social = ?, nome_fantasia = ?, cnpj_cpf = ?, endereco = ?,
                numero = ?, bairro = ?, cidade = ?, estado = ?, cep = ?,
                nome_responsavel = ?, email_comercial = ?, telefone_celular = ?,
                telefone_fixo = ?, dias_funcionamento = ?, observacoes = ?,
                status = ?, data_atualizacao = ?
            WHERE id_cliente = ?
        `, c.RazaoSocial, c.NomeFantasia, c.CnpjCpf, c.Endereco,
			c.Numero, c.Bairro, c.Cidade, c.Estado, c.CEP,
			c.NomeResponsavel, c.EmailComercial, c.TelefoneCelular,
			c.TelefoneFixo, c.DiasFuncionamento, c.Observacoes,
			c.Status, c.DataAtualizacao, c.ID)
		if err != nil {
			return constraintError(err, clienteUniqueFields, "")
		}
		if err := requireAffected(res, apierr.ErrClientNotFound); err != nil {
			return err
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "cliente",
			RegistroID:    c.ID,
			Acao:          models.AuditUpdate,
			Descricao:     "Atualização de cliente",
			Detalhes:      auditDetails(c),
		})
	})
}

func (s *SQLiteDB) DeleteCliente(ctx context.Context, id int64, actorID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT"+clienteColumns+" FROM cliente WHERE id_cliente = ?", id)
		c, err := scanCliente(row)
		if err != nil {
			return notFound(err, apierr.ErrClientNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cliente WHERE id_cliente = ?`, id); err != nil {
			return err
		}

		return s.insertAudit(ctx, tx, &models.AuditLog{
			UserID:        actorRef(actorID),
			TabelaAfetada: "cliente",
			RegistroID:    id,
			Acao:          models.AuditDelete,
			Descricao:     "Exclusão de cliente",
			Detalhes:      auditDetails(c),
		})
	})
}
