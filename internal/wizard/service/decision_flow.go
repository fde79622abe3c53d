package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/observability"
	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/validate"
)

// ============================================================
// DECISÃO DE COBRANÇA
// ============================================================
//
// decision_select → segmento → amount → dpd → prop → currency → channel
// → decision_confirm → (confirm) → decision_result → (proceed_route)* → finalize
//
// O commit é em dois estágios: a decisão e, opcionalmente, a rota de pagamento.
// Uma falha na rota não invalida a decisão: o resultado fica guardado e o
// operador pode tentar de novo ou finalizar.

// fallbackPaymentMethod é usado quando a decisão não sugere nenhum meio.
const fallbackPaymentMethod = "card"

func (w *Wizard) startDecision(ctx context.Context, _ wdomain.Event) error {
	if len(w.loadCustomers(ctx)) == 0 {
		w.say(msgNoCustomersToDecide)
		w.toIdle()
		return nil
	}
	w.setState(decisionState{step: wdomain.ModeDecisionSelect})
	w.say(msgSelectToDecide)
	return nil
}

func (w *Wizard) selectForDecision(_ context.Context, ev wdomain.Event) error {
	c, ok := w.customer(ev.CustomerID)
	if !ok {
		w.reject(wdomain.ModeDecisionSelect, msgUnknownCustomer)
		return nil
	}
	w.setState(decisionState{
		step:       wdomain.ModeDecisionSegmento,
		selectedID: c.ID,
		ctx:        wdomain.DecisionContext{CustomerID: c.ID},
	})
	w.say(fmt.Sprintf("Decisión de cobranza para: %s", c.Name), msgAskSegmento)
	return nil
}

// submitDecision captura um campo por vez. O estado com o valor recém-aceito é
// instalado antes de qualquer renderização, então o preview em decision_confirm
// sempre reflete o canal que acabou de ser enviado.
func (w *Wizard) submitDecision(_ context.Context, ev wdomain.Event) error {
	st, err := stateAs[decisionState](w)
	if err != nil {
		return err
	}
	w.echo(ev.Text)
	text := strings.TrimSpace(ev.Text)

	var prompt []string
	switch st.step {
	case wdomain.ModeDecisionSegmento:
		if !validate.NonEmpty(text) {
			w.reject(st.step, msgSegmentoRequired)
			return nil
		}
		st.ctx.Segmento = text
		st.step = wdomain.ModeDecisionAmount
		prompt = []string{msgAskAmount}

	case wdomain.ModeDecisionAmount:
		amount, ok := validate.Number(text)
		if !ok {
			w.reject(st.step, msgAmountInvalid)
			return nil
		}
		st.ctx.AmountDue = amount
		st.step = wdomain.ModeDecisionDPD
		prompt = []string{msgAskDPD}

	case wdomain.ModeDecisionDPD:
		dpd, ok := validate.NonNegativeInt(text)
		if !ok {
			w.reject(st.step, msgDPDInvalid)
			return nil
		}
		st.ctx.DPD = dpd
		st.step = wdomain.ModeDecisionProp
		prompt = []string{msgAskProp}

	case wdomain.ModeDecisionProp:
		prop, ok := validate.FloatInRange(text, 0, 1)
		if !ok {
			w.reject(st.step, msgPropInvalid)
			return nil
		}
		st.ctx.PropensionPago = prop
		st.step = wdomain.ModeDecisionCurrency
		prompt = []string{msgAskCurrency}

	case wdomain.ModeDecisionCurrency:
		st.ctx.Currency = validate.Currency(text, wdomain.DefaultCurrency)
		st.step = wdomain.ModeDecisionChannel
		prompt = []string{msgAskChannel}

	case wdomain.ModeDecisionChannel:
		st.ctx.Channel = validate.Optional(text)
		st.step = wdomain.ModeDecisionConfirm
		selected, _ := w.customer(st.selectedID)
		prompt = decisionPreview(selected.Name, st.ctx)
	}

	w.setState(st)
	w.say(prompt...)
	return nil
}

func (w *Wizard) confirmDecision(ctx context.Context, ev wdomain.Event) error {
	st, err := stateAs[decisionState](w)
	if err != nil {
		return err
	}
	if !ev.Confirm {
		w.say(msgDecisionCancelled)
		w.toIdle()
		return nil
	}

	var result *domain.DecisionResult
	err = w.observe("decision", "request_decision", func() error {
		var err error
		result, err = w.deps.Decision.RequestDecision(ctx, st.ctx.Request())
		return err
	})
	if err != nil {
		// A decisão foi abandonada, mas os clientes carregados continuam válidos.
		w.setState(listDoneState{})
		w.say(fmt.Sprintf("⚠️ Error al solicitar decisión: %s", domain.UserMessage(err)))
		return nil
	}
	if result == nil {
		result = &domain.DecisionResult{}
	}

	w.deps.Metrics.IncrOutcome(observability.OutcomeDecisionRequested)
	st.step = wdomain.ModeDecisionResult
	st.result = result
	w.setState(st)

	speech := strings.TrimSpace(result.Speech)
	if speech == "" {
		speech = msgNoSpeech
	}
	w.say(strings.Split(speech, "\n")...)
	return nil
}

// proceedRoute pede a rota de pagamento a partir da decisão guardada.
// O modo não muda, com sucesso ou falha.
func (w *Wizard) proceedRoute(ctx context.Context, _ wdomain.Event) error {
	st, err := stateAs[decisionState](w)
	if err != nil {
		return err
	}
	if st.result == nil {
		return domain.ErrMissingDecision
	}

	req := routeRequest(st.ctx, st.result)
	var route *domain.PaymentRoute
	err = w.observe("strategy", "payment_route", func() error {
		var err error
		route, err = w.deps.Strategy.PaymentRoute(ctx, req)
		return err
	})
	if err != nil {
		w.say(fmt.Sprintf("⚠️ Error al generar la ruta de pago: %s", domain.UserMessage(err)))
		return nil
	}
	if route == nil {
		route = &domain.PaymentRoute{}
	}

	w.deps.Metrics.IncrOutcome(observability.OutcomeRouteConfirmed)
	w.deps.Logger.Info("payment route confirmed",
		zap.String("session_id", w.id),
		zap.String("customer_id", st.ctx.CustomerID),
		zap.String("method", route.Method),
		zap.String("routed_to", route.RoutedTo),
	)
	w.say(routeLines(route, req)...)
	return nil
}

func (w *Wizard) finalize(_ context.Context, _ wdomain.Event) error {
	w.say(msgDecisionFinalized)
	w.toIdle()
	return nil
}

// routeRequest sintetiza o payload de roteamento.
// payment_method: best_payment_method.type → payment_route.method → "card".
// provider acompanha o método escolhido, com payment_route.routed_to como reserva.
func routeRequest(dc wdomain.DecisionContext, res *domain.DecisionResult) *domain.RouteRequest {
	method, provider := "", ""
	if best := res.BestPaymentMethod; best != nil && strings.TrimSpace(best.Type) != "" {
		method, provider = best.Type, best.Provider
	}
	if pr := res.PaymentRoute; pr != nil {
		if method == "" {
			method = pr.Method
		}
		if provider == "" {
			provider = pr.RoutedTo
		}
	}
	if strings.TrimSpace(method) == "" {
		method = fallbackPaymentMethod
	}

	metadata := map[string]string{"customer_id": dc.CustomerID}
	if dc.Channel != "" {
		metadata["channel"] = dc.Channel
	}

	return &domain.RouteRequest{
		PaymentMethod: method,
		Amount:        dc.AmountDue,
		Currency:      dc.Currency,
		Provider:      provider,
		Metadata:      metadata,
	}
}
