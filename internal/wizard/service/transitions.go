package service

import (
	"context"

	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
)

// handlerFunc processa um evento aceito pelo modo atual e instala o próximo estado.
type handlerFunc func(w *Wizard, ctx context.Context, ev wdomain.Event) error

type transitionKey struct {
	mode  wdomain.Mode
	event wdomain.EventKind
}

// transitions é a tabela (modo, evento) → handler.
// Pares ausentes: submit_text cai em nudge; o resto é ErrInvalidTransition.
var transitions = buildTransitions()

func buildTransitions() map[transitionKey]handlerFunc {
	t := make(map[transitionKey]handlerFunc)
	on := func(h handlerFunc, event wdomain.EventKind, modes ...wdomain.Mode) {
		for _, m := range modes {
			t[transitionKey{mode: m, event: event}] = h
		}
	}

	// Comandos de início: apenas a partir do estado neutro ou do fim da listagem.
	neutral := []wdomain.Mode{wdomain.ModeIdle, wdomain.ModeListDone}
	on((*Wizard).startCreate, wdomain.EventStartCreate, neutral...)
	on((*Wizard).startEdit, wdomain.EventStartEdit, neutral...)
	on((*Wizard).startDelete, wdomain.EventStartDelete, neutral...)
	on((*Wizard).startList, wdomain.EventStartList, neutral...)
	on((*Wizard).startDecision, wdomain.EventStartDecision, neutral...)

	// Captura de campos.
	on((*Wizard).submitCreate, wdomain.EventSubmitText,
		wdomain.ModeCreateName, wdomain.ModeCreateEmail, wdomain.ModeCreatePhone)
	on((*Wizard).submitEdit, wdomain.EventSubmitText,
		wdomain.ModeEditName, wdomain.ModeEditEmail, wdomain.ModeEditPhone)
	on((*Wizard).submitDecision, wdomain.EventSubmitText,
		wdomain.ModeDecisionSegmento, wdomain.ModeDecisionAmount, wdomain.ModeDecisionDPD,
		wdomain.ModeDecisionProp, wdomain.ModeDecisionCurrency, wdomain.ModeDecisionChannel)

	// Seleção de cliente.
	on((*Wizard).selectForEdit, wdomain.EventSelectCustomer, wdomain.ModeEditSelect)
	on((*Wizard).selectForDelete, wdomain.EventSelectCustomer, wdomain.ModeDeleteSelect)
	on((*Wizard).selectForDecision, wdomain.EventSelectCustomer, wdomain.ModeDecisionSelect)

	// Confirmações.
	on((*Wizard).confirmCreate, wdomain.EventConfirm, wdomain.ModeCreateConfirm)
	on((*Wizard).confirmEdit, wdomain.EventConfirm, wdomain.ModeEditConfirm)
	on((*Wizard).confirmDelete, wdomain.EventConfirm, wdomain.ModeDeleteConfirm)
	on((*Wizard).confirmDecision, wdomain.EventConfirm, wdomain.ModeDecisionConfirm)

	// Resultado da decisão.
	on((*Wizard).proceedRoute, wdomain.EventProceedRoute, wdomain.ModeDecisionResult)
	on((*Wizard).finalize, wdomain.EventFinalize, wdomain.ModeDecisionResult)

	// Cancelamento: aceito em todos os modos.
	on((*Wizard).cancel, wdomain.EventCancel, wdomain.AllModes...)

	return t
}

func lookup(mode wdomain.Mode, event wdomain.EventKind) (handlerFunc, bool) {
	h, ok := transitions[transitionKey{mode: mode, event: event}]
	return h, ok
}

// Accepts reports whether the table has an entry for (mode, event).
func Accepts(mode wdomain.Mode, event wdomain.EventKind) bool {
	_, ok := lookup(mode, event)
	return ok
}

// ============================================================
// Handlers comuns
// ============================================================

// cancel limpa rascunho, contexto e seleção e volta ao estado neutro.
// Em idle (ou list_done) apenas repete o prompt de ações: é idempotente.
func (w *Wizard) cancel(_ context.Context, _ wdomain.Event) error {
	switch w.current().(type) {
	case idleState, listDoneState:
	default:
		w.say(msgCancelled)
	}
	w.toIdle()
	return nil
}

// nudge responde a texto livre num modo que espera botões.
func (w *Wizard) nudge(_ context.Context, ev wdomain.Event) error {
	w.echo(ev.Text)
	w.say(msgUseButtons)
	return nil
}
