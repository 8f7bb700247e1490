package models

import (
	"fmt"
	"strings"
)

// Action is the closed set of operations a permission can grant.
type Action string

const (
	ActionInsert  Action = "I"
	ActionAlter   Action = "A"
	ActionErase   Action = "E"
	ActionConsult Action = "C"
)

// Actions lists every action in display order.
var Actions = []Action{ActionInsert, ActionAlter, ActionErase, ActionConsult}

// ParseAction accepts an action code in any case.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	switch a {
	case ActionInsert, ActionAlter, ActionErase, ActionConsult:
		return a, nil
	}
	return "", fmt.Errorf("invalid action %q: must be one of I, A, E, C", s)
}

// Label is the Portuguese verb shown in authorization messages.
func (a Action) Label() string {
	switch a {
	case ActionInsert:
		return "inserir"
	case ActionAlter:
		return "alterar"
	case ActionErase:
		return "excluir"
	case ActionConsult:
		return "consultar"
	}
	return string(a)
}

// Module names a capability domain that permissions are granted on.
type Module string

const (
	ModuleUsuario             Module = "USUARIO"
	ModuleCliente             Module = "CLIENTE"
	ModulePerfil              Module = "PERFIL"
	ModulePermissao           Module = "PERMISSAO"
	ModuleProduto             Module = "PRODUTO"
	ModuleTipoCompensacao     Module = "TIPO_COMPENSACAO"
	ModuleColeta              Module = "COLETA"
	ModuleColetaCompensacao   Module = "COLETA_COMPENSACAO"
	ModuleColetaProduto       Module = "COLETA_PRODUTO"
	ModuleMovimentacaoEstoque Module = "MOVIMENTACAO_ESTOQUE"
	ModulePedidoCompra        Module = "PEDIDO_COMPRA"
	ModuleContrato            Module = "CONTRATO"
	ModuleLogAuditoria        Module = "LOG_AUDITORIA"
	ModuleRelatorio           Module = "RELATORIO"
)

// Modules is the fixed module registry.
var Modules = []Module{
	ModuleUsuario,
	ModuleCliente,
	ModulePerfil,
	ModulePermissao,
	ModuleProduto,
	ModuleTipoCompensacao,
	ModuleColeta,
	ModuleColetaCompensacao,
	ModuleColetaProduto,
	ModuleMovimentacaoEstoque,
	ModulePedidoCompra,
	ModuleContrato,
	ModuleLogAuditoria,
	ModuleRelatorio,
}

// ParseModule resolves a module name against the registry, ignoring case.
func ParseModule(s string) (Module, error) {
	name := strings.TrimSpace(s)
	for _, m := range Modules {
		if strings.EqualFold(string(m), name) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown module %q", s)
}

// Requirement is the (module, action) pair a route declares.
type Requirement struct {
	Module Module
	Action Action
}

func (r Requirement) String() string {
	return fmt.Sprintf("perfil:%s,%s", r.Module, r.Action)
}

// ParseRequirement parses the route declaration form "perfil:MODULE,ACTION".
// The "perfil:" prefix is optional.
func ParseRequirement(decl string) (Requirement, error) {
	body := strings.TrimPrefix(strings.TrimSpace(decl), "perfil:")
	parts := strings.Split(body, ",")
	if len(parts) != 2 {
		return Requirement{}, fmt.Errorf("invalid requirement %q: expected perfil:MODULE,ACTION", decl)
	}

	module, err := ParseModule(parts[0])
	if err != nil {
		return Requirement{}, err
	}
	action, err := ParseAction(parts[1])
	if err != nil {
		return Requirement{}, err
	}
	return Requirement{Module: module, Action: action}, nil
}

// MustRequirement is ParseRequirement for static route tables.
func MustRequirement(decl string) Requirement {
	r, err := ParseRequirement(decl)
	if err != nil {
		panic(err)
	}
	return r
}
