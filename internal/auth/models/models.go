package models

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state shared by users, profiles and clients.
type Status string

const (
	StatusActive   Status = "ATIVO"
	StatusInactive Status = "INATIVO"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Identity is an authenticable user (table usuario).
type Identity struct {
	ID                    int64     `json:"id_usuario"`
	NomeCompleto          string    `json:"nome_completo"`
	Email                 string    `json:"email"`
	CPF                   string    `json:"cpf"`
	SenhaHash             string    `json:"-"`
	PerfilID              *int64    `json:"id_perfil"`
	NomePerfil            string    `json:"nome_perfil,omitempty"`
	Status                Status    `json:"status"`
	TentativasLogin       int       `json:"tentativas_login"`
	PasswordResetRequired bool      `json:"password_reset_required"`
	DataCriacao           time.Time `json:"data_criacao"`
}

// PublicIdentity is the subset of Identity returned by login and /auth/me.
type PublicIdentity struct {
	ID                    int64  `json:"id_usuario"`
	NomeCompleto          string `json:"nome_completo"`
	Email                 string `json:"email"`
	CPF                   string `json:"cpf"`
	PerfilID              *int64 `json:"id_perfil"`
	Status                Status `json:"status"`
	PasswordResetRequired bool   `json:"password_reset_required"`
}

func (i *Identity) Public() PublicIdentity {
	return PublicIdentity{
		ID:                    i.ID,
		NomeCompleto:          i.NomeCompleto,
		Email:                 i.Email,
		CPF:                   i.CPF,
		PerfilID:              i.PerfilID,
		Status:                i.Status,
		PasswordResetRequired: i.PasswordResetRequired,
	}
}

// Profile is a named role owning a set of permissions (table perfil).
type Profile struct {
	ID         int64        `json:"id_perfil"`
	Nome       string       `json:"nome_perfil"`
	Descricao  string       `json:"descricao"`
	Status     Status       `json:"status"`
	Permissoes []Permission `json:"permissoes"`
}

// Permission is a (module, action) grant (table permissao).
type Permission struct {
	ID        int64  `json:"id_permissao"`
	Modulo    Module `json:"nome_modulo"`
	Acao      Action `json:"acao"`
	Descricao string `json:"descricao"`
}

// Token tracks an issued bearer token by its jti. The signed string itself is never stored.
type Token struct {
	ID         int64      `json:"id_token"`
	UserID     int64      `json:"id_usuario"`
	JTI        string     `json:"-"`
	ExpiresAt  *time.Time `json:"expira_em,omitempty"`
	CreatedAt  time.Time  `json:"criado_em"`
	LastUsedAt time.Time  `json:"ultimo_uso_em"`
	RevokedAt  *time.Time `json:"revogado_em,omitempty"`
	ClientIP   string     `json:"ip_cliente"`
	UserAgent  string     `json:"user_agent"`
}

// Active reports whether the token can still authenticate requests at t.
func (t *Token) Active(at time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	return t.ExpiresAt == nil || at.Before(*t.ExpiresAt)
}

type AuditAction string

const (
	AuditInsert AuditAction = "INSERT"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// AuditLog is a row of log_auditoria. UserID is nil for actions without an authenticated actor.
type AuditLog struct {
	ID            int64           `json:"id_log"`
	UserID        *int64          `json:"id_usuario"`
	TabelaAfetada string          `json:"tabela_afetada"`
	RegistroID    int64           `json:"registro_id"`
	Acao          AuditAction     `json:"acao"`
	Descricao     string          `json:"descricao"`
	Detalhes      json.RawMessage `json:"detalhes,omitempty"`
	DataHora      time.Time       `json:"data_hora"`
}

// Cliente is a customer of the collection business (table cliente).
type Cliente struct {
	ID                int64     `json:"id_cliente"`
	RazaoSocial       string    `json:"razao_social"`
	NomeFantasia      string    `json:"nome_fantasia"`
	CnpjCpf           string    `json:"cnpj_cpf"`
	Endereco          string    `json:"endereco"`
	Numero            string    `json:"numero"`
	Bairro            string    `json:"bairro"`
	Cidade            string    `json:"cidade"`
	Estado            string    `json:"estado"`
	CEP               string    `json:"cep"`
	NomeResponsavel   string    `json:"nome_responsavel"`
	EmailComercial    string    `json:"email_comercial"`
	TelefoneCelular   string    `json:"telefone_celular"`
	TelefoneFixo      string    `json:"telefone_fixo"`
	DiasFuncionamento string    `json:"dias_funcionamento"`
	Observacoes       string    `json:"observacoes"`
	Status            Status    `json:"status"`
	DataCriacao       time.Time `json:"data_criacao"`
	DataAtualizacao   time.Time `json:"data_atualizacao"`
}

// ClienteFilter narrows client listings. Busca matches razao_social,
// nome_fantasia (case-insensitive) and cnpj_cpf.
type ClienteFilter struct {
	Status Status
	Busca  string
}

// UserUpdate carries the optional fields of a partial user update.
type UserUpdate struct {
	NomeCompleto *string
	Email        *string
	PerfilID     *int64
	Status       *Status
}

// ProfileInput is a full profile write. A nil PermissionIDs leaves the
// permission set unchanged on update.
type ProfileInput struct {
	Nome          string
	Descricao     string
	Status        Status
	PermissionIDs []int64
}
