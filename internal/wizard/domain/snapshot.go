package domain

import "github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"

// Action é um botão disponível no modo atual.
type Action struct {
	Event   EventKind `json:"event"`
	Label   string    `json:"label"`
	Confirm *bool     `json:"confirm,omitempty"`
}

// Snapshot é tudo que o front precisa para renderizar o assistente.
type Snapshot struct {
	SessionID    string                 `json:"session_id"`
	Mode         Mode                   `json:"mode"`
	Loading      bool                   `json:"loading"`
	InputEnabled bool                   `json:"input_enabled"`
	Actions      []Action               `json:"actions"`
	Status       string                 `json:"status,omitempty"`
	Transcript   []ChatMessage          `json:"transcript"`
	Customers    []domain.Customer      `json:"customers,omitempty"`
	Decision     *domain.DecisionResult `json:"decision,omitempty"`
}

// DispatchResult é a resposta de um evento: as mensagens acrescentadas por ele
// e o snapshot resultante.
type DispatchResult struct {
	Appended []ChatMessage `json:"appended"`
	Snapshot *Snapshot     `json:"snapshot"`
}
