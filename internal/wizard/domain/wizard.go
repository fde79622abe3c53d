// Package domain: tipos do assistente de cobrança conduzido por etapas (wizard).
//
// O wizard é uma máquina de estados explícita: exatamente um Mode fica ativo
// por vez e é ele que decide qual widget o front mostra e qual handler recebe
// o texto digitado pelo operador.
//
// Fluxos:
//
//	create:   idle → create_name → create_email → create_phone → create_confirm → idle
//	edit:     idle → edit_select → edit_name → edit_email → edit_phone → edit_confirm → idle
//	delete:   idle → delete_select → delete_confirm → idle
//	list:     idle → list_done
//	decision: idle → decision_select → decision_segmento → … → decision_channel
//	          → decision_confirm → decision_result → (finalize) idle
package domain

import "github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"

// ============================================================
// Mode: o registrador de estado
// ============================================================

// Mode é a tag fechada que identifica a etapa ativa do wizard.
type Mode string

const (
	ModeIdle Mode = "idle"

	ModeCreateName    Mode = "create_name"
	ModeCreateEmail   Mode = "create_email"
	ModeCreatePhone   Mode = "create_phone"
	ModeCreateConfirm Mode = "create_confirm"

	ModeEditSelect  Mode = "edit_select"
	ModeEditName    Mode = "edit_name"
	ModeEditEmail   Mode = "edit_email"
	ModeEditPhone   Mode = "edit_phone"
	ModeEditConfirm Mode = "edit_confirm"

	ModeDeleteSelect  Mode = "delete_select"
	ModeDeleteConfirm Mode = "delete_confirm"

	ModeListDone Mode = "list_done"

	ModeDecisionSelect   Mode = "decision_select"
	ModeDecisionSegmento Mode = "decision_segmento"
	ModeDecisionAmount   Mode = "decision_amount"
	ModeDecisionDPD      Mode = "decision_dpd"
	ModeDecisionProp     Mode = "decision_prop"
	ModeDecisionCurrency Mode = "decision_currency"
	ModeDecisionChannel  Mode = "decision_channel"
	ModeDecisionConfirm  Mode = "decision_confirm"
	ModeDecisionResult   Mode = "decision_result"
)

// AllModes lista todos os modos, na ordem em que aparecem nos fluxos.
var AllModes = []Mode{
	ModeIdle,
	ModeCreateName, ModeCreateEmail, ModeCreatePhone, ModeCreateConfirm,
	ModeEditSelect, ModeEditName, ModeEditEmail, ModeEditPhone, ModeEditConfirm,
	ModeDeleteSelect, ModeDeleteConfirm,
	ModeListDone,
	ModeDecisionSelect, ModeDecisionSegmento, ModeDecisionAmount, ModeDecisionDPD,
	ModeDecisionProp, ModeDecisionCurrency, ModeDecisionChannel, ModeDecisionConfirm,
	ModeDecisionResult,
}

// IsTextCapture indica se o modo recebe texto livre (um campo por vez).
func (m Mode) IsTextCapture() bool {
	switch m {
	case ModeCreateName, ModeCreateEmail, ModeCreatePhone,
		ModeEditName, ModeEditEmail, ModeEditPhone,
		ModeDecisionSegmento, ModeDecisionAmount, ModeDecisionDPD,
		ModeDecisionProp, ModeDecisionCurrency, ModeDecisionChannel:
		return true
	}
	return false
}

// IsSelect indica se o modo espera a escolha de um cliente da lista carregada.
func (m Mode) IsSelect() bool {
	return m == ModeEditSelect || m == ModeDeleteSelect || m == ModeDecisionSelect
}

// IsConfirm indica se o modo espera um sim/não.
func (m Mode) IsConfirm() bool {
	return m == ModeCreateConfirm || m == ModeEditConfirm || m == ModeDeleteConfirm || m == ModeDecisionConfirm
}

// ============================================================
// Eventos
// ============================================================

// EventKind é o tipo de evento despachado pela UI.
type EventKind string

const (
	EventStartCreate    EventKind = "start_create"
	EventStartEdit      EventKind = "start_edit"
	EventStartDelete    EventKind = "start_delete"
	EventStartList      EventKind = "start_list"
	EventStartDecision  EventKind = "start_decision"
	EventSubmitText     EventKind = "submit_text"
	EventSelectCustomer EventKind = "select_customer"
	EventConfirm        EventKind = "confirm"
	EventCancel         EventKind = "cancel"
	EventProceedRoute   EventKind = "proceed_route"
	EventFinalize       EventKind = "finalize"
)

// AllEventKinds lista os eventos aceitos pela API.
var AllEventKinds = []EventKind{
	EventStartCreate, EventStartEdit, EventStartDelete, EventStartList, EventStartDecision,
	EventSubmitText, EventSelectCustomer, EventConfirm, EventCancel,
	EventProceedRoute, EventFinalize,
}

// Event é um botão pressionado ou um campo enviado.
//   - Text: usado por submit_text
//   - CustomerID: usado por select_customer
//   - Confirm: usado por confirm (true = confirmar, false = descartar)
type Event struct {
	Kind       EventKind
	Text       string
	CustomerID string
	Confirm    bool
}

// ============================================================
// Contextos por fluxo
// ============================================================

// DraftCustomer é o rascunho preenchido campo a campo em create/edit.
type DraftCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Input converte o rascunho no payload do diretório.
func (d DraftCustomer) Input() domain.CustomerInput {
	return domain.CustomerInput{Name: d.Name, Email: d.Email, Phone: d.Phone}
}

// DefaultCurrency é usada quando o operador deixa a moeda em branco.
const DefaultCurrency = "MXN"

// DecisionContext acumula os seis campos do fluxo de decisão.
type DecisionContext struct {
	CustomerID     string  `json:"customer_id"`
	Segmento       string  `json:"segmento"`
	AmountDue      float64 `json:"amount_due"`
	DPD            int     `json:"dpd"`
	PropensionPago float64 `json:"propension_pago"`
	Currency       string  `json:"currency"`
	Channel        string  `json:"channel,omitempty"`
}

// Request monta o payload tipado do serviço de decisão (canal vazio é omitido).
func (c DecisionContext) Request() *domain.DecisionRequest {
	return &domain.DecisionRequest{
		CustomerID:     c.CustomerID,
		Segmento:       c.Segmento,
		AmountDue:      c.AmountDue,
		DPD:            c.DPD,
		PropensionPago: c.PropensionPago,
		Currency:       c.Currency,
		Channel:        c.Channel,
	}
}
