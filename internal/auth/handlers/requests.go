package handlers

import (
	"fmt"
	"strings"

	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/auth/validation"
)

var statusValues = []string{string(models.StatusActive), string(models.StatusInactive)}

type LoginRequest struct {
	CPF   string `json:"cpf"`
	Senha string `json:"senha"`
}

func (r *LoginRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	errs.Required("cpf", r.CPF)
	errs.Required("senha", r.Senha)
	return errs
}

type CreateUserRequest struct {
	NomeCompleto string `json:"nome_completo"`
	Email        string `json:"email"`
	CPF          string `json:"cpf"`
	Senha        string `json:"senha"`
	PerfilID     *int64 `json:"id_perfil"`
}

func (r *CreateUserRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if errs.Required("nome_completo", r.NomeCompleto) {
		errs.MaxLen("nome_completo", r.NomeCompleto, 255)
	}
	if errs.Required("email", r.Email) {
		errs.Email("email", r.Email)
	}
	if errs.Required("cpf", r.CPF) {
		errs.MaxLen("cpf", r.CPF, 14)
	}
	if errs.Required("senha", r.Senha) {
		errs.MinLen("senha", r.Senha, 6)
	}
	if r.PerfilID == nil {
		errs.Add("id_perfil", "O campo id_perfil é obrigatório.")
	}
	return errs
}

// UpdateUserRequest is a partial update. Absent fields are left unchanged.
type UpdateUserRequest struct {
	NomeCompleto *string `json:"nome_completo"`
	Email        *string `json:"email"`
	PerfilID     *int64  `json:"id_perfil"`
	Status       *string `json:"status"`
}

func (r *UpdateUserRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if r.NomeCompleto != nil && errs.Required("nome_completo", *r.NomeCompleto) {
		errs.MaxLen("nome_completo", *r.NomeCompleto, 255)
	}
	if r.Email != nil && errs.Required("email", *r.Email) {
		errs.Email("email", *r.Email)
	}
	if r.Status != nil && errs.Required("status", *r.Status) {
		errs.OneOf("status", *r.Status, statusValues...)
	}
	return errs
}

func (r *UpdateUserRequest) toUpdate() models.UserUpdate {
	upd := models.UserUpdate{
		NomeCompleto: r.NomeCompleto,
		Email:        r.Email,
		PerfilID:     r.PerfilID,
	}
	if r.Status != nil {
		status := models.Status(*r.Status)
		upd.Status = &status
	}
	return upd
}

type UserStatusRequest struct {
	Status string `json:"status"`
}

func (r *UserStatusRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if errs.Required("status", r.Status) {
		errs.OneOf("status", r.Status, statusValues...)
	}
	return errs
}

type ResetPasswordRequest struct {
	NovaSenha string `json:"nova_senha"`
}

func (r *ResetPasswordRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if errs.Required("nova_senha", r.NovaSenha) {
		errs.MinLen("nova_senha", r.NovaSenha, 6)
	}
	return errs
}

// ProfileRequest serves both create and update. On update, absent fields keep
// their stored value and an absent permissoes keeps the current grants.
type ProfileRequest struct {
	Nome       *string  `json:"nome_perfil"`
	Descricao  *string  `json:"descricao"`
	Status     *string  `json:"status"`
	Permissoes *[]int64 `json:"permissoes"`

	creating bool
}

func (r *ProfileRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	switch {
	case r.Nome != nil:
		if errs.Required("nome_perfil", *r.Nome) {
			errs.MaxLen("nome_perfil", *r.Nome, 50)
		}
	case r.creating:
		errs.Add("nome_perfil", "O campo nome_perfil é obrigatório.")
	}
	if r.Descricao != nil {
		errs.MaxLen("descricao", *r.Descricao, 250)
	}
	if r.Status != nil {
		errs.OneOf("status", *r.Status, statusValues...)
	}
	if r.Permissoes != nil {
		for _, id := range *r.Permissoes {
			if id <= 0 {
				errs.Add("permissoes", fmt.Sprintf("Permissão inválida: %d.", id))
			}
		}
	}
	return errs
}

// apply merges the request over current, which may be nil on create.
func (r *ProfileRequest) apply(current *models.Profile) models.ProfileInput {
	var in models.ProfileInput
	if current != nil {
		in.Nome = current.Nome
		in.Descricao = current.Descricao
		in.Status = current.Status
	}
	if r.Nome != nil {
		in.Nome = strings.TrimSpace(*r.Nome)
	}
	if r.Descricao != nil {
		in.Descricao = *r.Descricao
	}
	if r.Status != nil && *r.Status != "" {
		in.Status = models.Status(*r.Status)
	}
	if r.Permissoes != nil {
		in.PermissionIDs = append([]int64{}, *r.Permissoes...)
	}
	return in
}

// PermissionRequest serves both create and update. Module names are checked
// against the registry and actions against I/A/E/C.
type PermissionRequest struct {
	Modulo    *string `json:"nome_modulo"`
	Acao      *string `json:"acao"`
	Descricao *string `json:"descricao"`

	creating bool
}

func (r *PermissionRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	switch {
	case r.Modulo != nil:
		if errs.Required("nome_modulo", *r.Modulo) {
			errs.MaxLen("nome_modulo", *r.Modulo, 100)
			if _, err := models.ParseModule(*r.Modulo); err != nil {
				errs.Add("nome_modulo", "O módulo informado não existe.")
			}
		}
	case r.creating:
		errs.Add("nome_modulo", "O campo nome_modulo é obrigatório.")
	}
	switch {
	case r.Acao != nil:
		if errs.Required("acao", *r.Acao) {
			if _, err := models.ParseAction(*r.Acao); err != nil {
				errs.Add("acao", "O campo acao deve ser um dos valores: I, A, E, C.")
			}
		}
	case r.creating:
		errs.Add("acao", "O campo acao é obrigatório.")
	}
	if r.Descricao != nil {
		errs.MaxLen("descricao", *r.Descricao, 255)
	}
	return errs
}

func (r *PermissionRequest) apply(p *models.Permission) {
	if r.Modulo != nil {
		p.Modulo, _ = models.ParseModule(*r.Modulo)
	}
	if r.Acao != nil {
		p.Acao, _ = models.ParseAction(*r.Acao)
	}
	if r.Descricao != nil {
		p.Descricao = *r.Descricao
	}
}
