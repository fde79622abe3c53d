package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/observability"
	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/validate"
)

// ============================================================
// CREATE: idle → create_name → create_email → create_phone → create_confirm → idle
// ============================================================

func (w *Wizard) startCreate(_ context.Context, _ wdomain.Event) error {
	w.setState(createState{step: wdomain.ModeCreateName})
	w.say(msgCreateStart)
	return nil
}

func (w *Wizard) submitCreate(_ context.Context, ev wdomain.Event) error {
	st, err := stateAs[createState](w)
	if err != nil {
		return err
	}
	w.echo(ev.Text)
	text := strings.TrimSpace(ev.Text)

	switch st.step {
	case wdomain.ModeCreateName:
		if !validate.NonEmpty(text) {
			w.reject(st.step, msgNameRequired)
			return nil
		}
		st.draft.Name = text
		st.step = wdomain.ModeCreateEmail
		w.setState(st)
		w.say(msgCreateAskEmail)

	case wdomain.ModeCreateEmail:
		if !validate.EmailShape(text) {
			w.reject(st.step, msgEmailInvalid)
			return nil
		}
		st.draft.Email = text
		st.step = wdomain.ModeCreatePhone
		w.setState(st)
		w.say(msgCreateAskPhone)

	case wdomain.ModeCreatePhone:
		if !validate.NonEmpty(text) {
			w.reject(st.step, msgPhoneRequired)
			return nil
		}
		st.draft.Phone = text
		st.step = wdomain.ModeCreateConfirm
		w.setState(st)
		w.say(createPreview(st.draft)...)
	}
	return nil
}

func (w *Wizard) confirmCreate(ctx context.Context, ev wdomain.Event) error {
	st, err := stateAs[createState](w)
	if err != nil {
		return err
	}
	if !ev.Confirm {
		w.say(msgCreateCancelled)
		w.toIdle()
		return nil
	}

	err = w.observe("directory", "create_customer", func() error {
		_, err := w.deps.Directory.CreateCustomer(ctx, st.draft.Input())
		return err
	})
	if err != nil {
		w.say(fmt.Sprintf("⚠️ Error al crear: %s", domain.UserMessage(err)))
	} else {
		w.deps.Metrics.IncrOutcome(observability.OutcomeCustomerCreated)
		w.say(msgCreated)
	}
	w.toIdle()
	return nil
}

// ============================================================
// EDIT: substituição completa: todos os campos são digitados de novo
// ============================================================

func (w *Wizard) startEdit(ctx context.Context, _ wdomain.Event) error {
	if len(w.loadCustomers(ctx)) == 0 {
		w.say(msgNoCustomersToEdit)
		w.toIdle()
		return nil
	}
	w.setState(editState{step: wdomain.ModeEditSelect})
	w.say(msgSelectToEdit)
	return nil
}

func (w *Wizard) selectForEdit(_ context.Context, ev wdomain.Event) error {
	c, ok := w.customer(ev.CustomerID)
	if !ok {
		w.reject(wdomain.ModeEditSelect, msgUnknownCustomer)
		return nil
	}
	// O rascunho nasce com os valores atuais, mas cada campo ainda precisa ser digitado.
	w.setState(editState{
		step:       wdomain.ModeEditName,
		selectedID: c.ID,
		draft:      wdomain.DraftCustomer{Name: c.Name, Email: c.Email, Phone: c.Phone},
	})
	w.say(fmt.Sprintf("Editar a: %s", c.Name), fmt.Sprintf("Ingresa el NUEVO nombre (actual: %s)", orDash(c.Name)))
	return nil
}

func (w *Wizard) submitEdit(_ context.Context, ev wdomain.Event) error {
	st, err := stateAs[editState](w)
	if err != nil {
		return err
	}
	w.echo(ev.Text)
	text := strings.TrimSpace(ev.Text)
	selected, _ := w.customer(st.selectedID)

	switch st.step {
	case wdomain.ModeEditName:
		if !validate.NonEmpty(text) {
			w.reject(st.step, msgNameRequired)
			return nil
		}
		st.draft.Name = text
		st.step = wdomain.ModeEditEmail
		w.setState(st)
		w.say(fmt.Sprintf("Ahora el NUEVO email (actual: %s)", orDash(selected.Email)))

	case wdomain.ModeEditEmail:
		if !validate.EmailShape(text) {
			w.reject(st.step, msgEmailInvalid)
			return nil
		}
		st.draft.Email = text
		st.step = wdomain.ModeEditPhone
		w.setState(st)
		w.say(fmt.Sprintf("Finalmente el NUEVO teléfono (actual: %s)", orDash(selected.Phone)))

	case wdomain.ModeEditPhone:
		if !validate.NonEmpty(text) {
			w.reject(st.step, msgPhoneRequiredEdit)
			return nil
		}
		st.draft.Phone = text
		st.step = wdomain.ModeEditConfirm
		w.setState(st)
		w.say(editPreview(selected.Name, st.draft)...)
	}
	return nil
}

func (w *Wizard) confirmEdit(ctx context.Context, ev wdomain.Event) error {
	st, err := stateAs[editState](w)
	if err != nil {
		return err
	}
	if !ev.Confirm {
		w.say(msgEditCancelled)
		w.toIdle()
		return nil
	}

	err = w.observe("directory", "update_customer", func() error {
		_, err := w.deps.Directory.UpdateCustomer(ctx, st.selectedID, st.draft.Input())
		return err
	})
	if err != nil {
		w.say(fmt.Sprintf("⚠️ Error al actualizar: %s", domain.UserMessage(err)))
	} else {
		w.deps.Metrics.IncrOutcome(observability.OutcomeCustomerUpdated)
		w.say(msgUpdated)
	}
	w.toIdle()
	return nil
}

// ============================================================
// DELETE: idle → delete_select → delete_confirm → idle
// ============================================================

func (w *Wizard) startDelete(ctx context.Context, _ wdomain.Event) error {
	if len(w.loadCustomers(ctx)) == 0 {
		w.say(msgNoCustomersToDelete)
		w.toIdle()
		return nil
	}
	w.setState(deleteState{step: wdomain.ModeDeleteSelect})
	w.say(msgSelectToDelete)
	return nil
}

func (w *Wizard) selectForDelete(_ context.Context, ev wdomain.Event) error {
	c, ok := w.customer(ev.CustomerID)
	if !ok {
		w.reject(wdomain.ModeDeleteSelect, msgUnknownCustomer)
		return nil
	}
	w.setState(deleteState{step: wdomain.ModeDeleteConfirm, selectedID: c.ID})
	w.say(fmt.Sprintf("Vas a eliminar a: %s (%s). ¿Confirmas?", c.Name, c.Email))
	return nil
}

func (w *Wizard) confirmDelete(ctx context.Context, ev wdomain.Event) error {
	st, err := stateAs[deleteState](w)
	if err != nil {
		return err
	}
	if !ev.Confirm {
		w.say(msgDeleteCancelled)
		w.toIdle()
		return nil
	}

	err = w.observe("directory", "delete_customer", func() error {
		return w.deps.Directory.DeleteCustomer(ctx, st.selectedID)
	})
	if err != nil {
		w.say(fmt.Sprintf("⚠️ Error al eliminar: %s", domain.UserMessage(err)))
	} else {
		w.deps.Metrics.IncrOutcome(observability.OutcomeCustomerDeleted)
		w.say(msgDeleted)
	}
	w.toIdle()
	return nil
}

// ============================================================
// LIST: idle → list_done (somente exibição)
// ============================================================

func (w *Wizard) startList(ctx context.Context, _ wdomain.Event) error {
	customers := w.loadCustomers(ctx)
	if len(customers) == 0 {
		w.say(msgNoCustomers)
		w.toIdle()
		return nil
	}
	w.setState(listDoneState{})
	w.say(listLines(customers)...)
	return nil
}
