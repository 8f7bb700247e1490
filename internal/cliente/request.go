package cliente

import (
	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/auth/validation"
)

// Request is the body of POST and PUT /clientes. On update, absent fields
// keep their stored value.
type Request struct {
	RazaoSocial       *string `json:"razao_social"`
	NomeFantasia      *string `json:"nome_fantasia"`
	CnpjCpf           *string `json:"cnpj_cpf"`
	Endereco          *string `json:"endereco"`
	Numero            *string `json:"numero"`
	Bairro            *string `json:"bairro"`
	Cidade            *string `json:"cidade"`
	Estado            *string `json:"estado"`
	CEP               *string `json:"cep"`
	NomeResponsavel   *string `json:"nome_responsavel"`
	EmailComercial    *string `json:"email_comercial"`
	TelefoneCelular   *string `json:"telefone_celular"`
	TelefoneFixo      *string `json:"telefone_fixo"`
	DiasFuncionamento *string `json:"dias_funcionamento"`
	Observacoes       *string `json:"observacoes"`
	Status            *string `json:"status"`

	creating bool
}

type textField struct {
	name  string
	value *string
	max   int
}

func (r *Request) optionalFields() []textField {
	return []textField{
		{"nome_fantasia", r.NomeFantasia, 100},
		{"endereco", r.Endereco, 150},
		{"numero", r.Numero, 10},
		{"bairro", r.Bairro, 100},
		{"cidade", r.Cidade, 100},
		{"estado", r.Estado, 2},
		{"cep", r.CEP, 10},
		{"nome_responsavel", r.NomeResponsavel, 100},
		{"email_comercial", r.EmailComercial, 100},
		{"telefone_celular", r.TelefoneCelular, 20},
		{"telefone_fixo", r.TelefoneFixo, 20},
		{"dias_funcionamento", r.DiasFuncionamento, 100},
		{"observacoes", r.Observacoes, 200},
	}
}

func (r *Request) Validate() validation.Errors {
	errs := validation.Errors{}

	for _, f := range []textField{{"razao_social", r.RazaoSocial, 100}, {"cnpj_cpf", r.CnpjCpf, 18}} {
		switch {
		case f.value != nil:
			if errs.Required(f.name, *f.value) {
				errs.MaxLen(f.name, *f.value, f.max)
			}
		case r.creating:
			errs.Add(f.name, "O campo "+f.name+" é obrigatório.")
		}
	}

	for _, f := range r.optionalFields() {
		if f.value != nil {
			errs.MaxLen(f.name, *f.value, f.max)
		}
	}
	if r.EmailComercial != nil {
		errs.Email("email_comercial", *r.EmailComercial)
	}
	if r.Status != nil {
		errs.OneOf("status", *r.Status, string(models.StatusActive), string(models.StatusInactive))
	}

	return errs
}

// apply copies the present fields onto c.
func (r *Request) apply(c *models.Cliente) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.RazaoSocial, r.RazaoSocial)
	set(&c.NomeFantasia, r.NomeFantasia)
	set(&c.CnpjCpf, r.CnpjCpf)
	set(&c.Endereco, r.Endereco)
	set(&c.Numero, r.Numero)
	set(&c.Bairro, r.Bairro)
	set(&c.Cidade, r.Cidade)
	set(&c.Estado, r.Estado)
	set(&c.CEP, r.CEP)
	set(&c.NomeResponsavel, r.NomeResponsavel)
	set(&c.EmailComercial, r.EmailComercial)
	set(&c.TelefoneCelular, r.TelefoneCelular)
	set(&c.TelefoneFixo, r.TelefoneFixo)
	set(&c.DiasFuncionamento, r.DiasFuncionamento)
	set(&c.Observacoes, r.Observacoes)
	if r.Status != nil && *r.Status != "" {
		c.Status = models.Status(*r.Status)
	}
}
