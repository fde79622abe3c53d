package service

import (
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
)

// state é a união etiquetada dos estados do wizard. Cada variante carrega
// apenas o contexto do seu fluxo; sair do fluxo descarta o contexto inteiro.
type state interface {
	mode() wdomain.Mode
}

type idleState struct{}

func (idleState) mode() wdomain.Mode { return wdomain.ModeIdle }

type listDoneState struct{}

func (listDoneState) mode() wdomain.Mode { return wdomain.ModeListDone }

// createState: create_name → create_email → create_phone → create_confirm.
type createState struct {
	step  wdomain.Mode
	draft wdomain.DraftCustomer
}

func (s createState) mode() wdomain.Mode { return s.step }

// editState: edit_select → edit_name → edit_email → edit_phone → edit_confirm.
// selectedID aponta para o snapshot de clientes; nunca é uma cópia mutável.
type editState struct {
	step       wdomain.Mode
	selectedID string
	draft      wdomain.DraftCustomer
}

func (s editState) mode() wdomain.Mode { return s.step }

// deleteState: delete_select → delete_confirm.
type deleteState struct {
	step       wdomain.Mode
	selectedID string
}

func (s deleteState) mode() wdomain.Mode { return s.step }

// decisionState: decision_select → … → decision_confirm → decision_result.
// result só existe em decision_result.
type decisionState struct {
	step       wdomain.Mode
	selectedID string
	ctx        wdomain.DecisionContext
	result     *domain.DecisionResult
}

func (s decisionState) mode() wdomain.Mode { return s.step }
