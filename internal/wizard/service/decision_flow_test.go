package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/service"
)

// decisionInputs são as respostas do cenário vip/4200/75/0.33.
var decisionInputs = []string{"vip", "4200", "75", "0.33", "", ""}

// toDecisionMode seleciona Ana e envia os primeiros n campos do cenário.
func toDecisionMode(t *testing.T, f *fixture, n int) {
	t.Helper()
	f.start(t, wdomain.EventStartDecision)
	f.selectCustomer(t, ana.ID)
	for _, in := range decisionInputs[:n] {
		f.submit(t, in)
	}
}

func TestDecisionFlow_EndToEnd(t *testing.T) {
	f := newFixture(ana, bruno)

	expectMode(t, f.start(t, wdomain.EventStartDecision), wdomain.ModeDecisionSelect)
	expectMode(t, f.selectCustomer(t, ana.ID), wdomain.ModeDecisionSegmento)

	modes := []wdomain.Mode{
		wdomain.ModeDecisionAmount, wdomain.ModeDecisionDPD, wdomain.ModeDecisionProp,
		wdomain.ModeDecisionCurrency, wdomain.ModeDecisionChannel, wdomain.ModeDecisionConfirm,
	}
	for i, in := range decisionInputs {
		expectMode(t, f.submit(t, in), modes[i])
	}

	res := f.confirm(t, true)
	expectMode(t, res, wdomain.ModeDecisionResult)

	if len(f.decision.requests) != 1 {
		t.Fatalf("expected one decision call, got %d", len(f.decision.requests))
	}
	raw, _ := json.Marshal(f.decision.requests[0])
	var payload map[string]any
	_ = json.Unmarshal(raw, &payload)

	want := map[string]any{
		"customer_id": "c1", "segmento": "vip", "amount_due": 4200.0,
		"dpd": 75.0, "propension_pago": 0.33, "currency": "MXN",
	}
	if len(payload) != len(want) {
		t.Errorf("unexpected payload keys: %s", raw)
	}
	for k, v := range want {
		if payload[k] != v {
			t.Errorf("payload[%s]: expected %v, got %v", k, v, payload[k])
		}
	}
	if _, ok := payload["channel"]; ok {
		t.Error("expected channel key to be absent")
	}

	if !containsLine(assistantLines(res), "Hola, le ofrecemos un descuento.") {
		t.Errorf("expected speech, got %v", assistantLines(res))
	}
	if res.Snapshot.Decision == nil {
		t.Error("expected decision in snapshot")
	}
	if len(res.Snapshot.Actions) != 2 || res.Snapshot.Actions[0].Event != wdomain.EventProceedRoute {
		t.Errorf("expected proceed/finalize actions, got %+v", res.Snapshot.Actions)
	}
}

func TestDecisionFlow_PreviewIncludesJustSubmittedChannel(t *testing.T) {
	tests := []struct {
		channel string
		want    string
	}{
		{"", "- Canal: —"},
		{"whatsapp", "- Canal: whatsapp"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := newFixture(ana)
			toDecisionMode(t, f, 5)

			res := f.submit(t, tt.channel)

			expectMode(t, res, wdomain.ModeDecisionConfirm)
			lines := assistantLines(res)
			if !containsLine(lines, tt.want) {
				t.Errorf("expected %q in preview, got %v", tt.want, lines)
			}
			if !containsLine(lines, "Confirma solicitud de decisión para Ana Ruiz:") {
				t.Errorf("expected customer name in preview, got %v", lines)
			}
			if !containsLine(lines, "- Moneda: MXN") || !containsLine(lines, "- Monto adeudado: 4200") {
				t.Errorf("unexpected preview %v", lines)
			}
		})
	}
}

func TestDecisionFlow_ChannelSentWhenPresent(t *testing.T) {
	f := newFixture(ana)
	toDecisionMode(t, f, 4)
	f.submit(t, "usd")
	f.submit(t, " sms ")
	f.confirm(t, true)

	req := f.decision.requests[0]
	if req.Channel != "sms" || req.Currency != "USD" {
		t.Errorf("expected channel sms and currency USD, got %+v", req)
	}
}

func TestDecisionFlow_PropensionBoundaries(t *testing.T) {
	for _, in := range []string{"0", "1", "0.0", "1.0"} {
		f := newFixture(ana)
		toDecisionMode(t, f, 3)
		expectMode(t, f.submit(t, in), wdomain.ModeDecisionCurrency)
	}
	for _, in := range []string{"-0.01", "1.01", "alta"} {
		f := newFixture(ana)
		toDecisionMode(t, f, 3)
		expectMode(t, f.submit(t, in), wdomain.ModeDecisionProp)
	}
}

func TestDecisionFlow_DPDBoundaries(t *testing.T) {
	f := newFixture(ana)
	toDecisionMode(t, f, 2)
	expectMode(t, f.submit(t, "45.5"), wdomain.ModeDecisionDPD)
	expectMode(t, f.submit(t, "abc"), wdomain.ModeDecisionDPD)
	expectMode(t, f.submit(t, "45"), wdomain.ModeDecisionProp)
	f.submit(t, "0.5")
	f.submit(t, "")
	f.submit(t, "")
	f.confirm(t, true)

	if dpd := f.decision.requests[0].DPD; dpd != 45 {
		t.Errorf("expected dpd 45, got %d", dpd)
	}
}

func TestDecisionFlow_ConfirmFalseClearsEverything(t *testing.T) {
	f := newFixture(ana)
	toDecisionMode(t, f, 6)

	res := f.confirm(t, false)

	expectMode(t, res, wdomain.ModeIdle)
	if len(f.decision.requests) != 0 {
		t.Fatal("decision must not be requested when confirm=false")
	}
	if res.Snapshot.Decision != nil || res.Snapshot.Status != "" {
		t.Errorf("expected decision state cleared, got %+v", res.Snapshot)
	}
}

func TestDecisionFlow_FailureGoesToListDone(t *testing.T) {
	f := newFixture(ana)
	f.decision.err = &domain.ErrExternalService{Service: "decision", Err: &domain.ErrRemote{Status: 400, Message: "segmento desconocido"}}
	toDecisionMode(t, f, 6)

	res := f.confirm(t, true)

	expectMode(t, res, wdomain.ModeListDone)
	if !containsLine(assistantLines(res), "⚠️ Error al solicitar decisión: segmento desconocido") {
		t.Errorf("unexpected lines %v", assistantLines(res))
	}
	if res.Snapshot.Decision != nil {
		t.Error("expected no decision after failure")
	}
}

func TestDecisionFlow_DefaultSpeech(t *testing.T) {
	f := newFixture(ana)
	f.decision.result = &domain.DecisionResult{}
	toDecisionMode(t, f, 6)

	res := f.confirm(t, true)

	if !containsLine(assistantLines(res), "Decisión generada (sin guion disponible).") {
		t.Errorf("expected default speech, got %v", assistantLines(res))
	}
}

func TestProceedRoute_FallbackChain(t *testing.T) {
	tests := []struct {
		name         string
		result       *domain.DecisionResult
		wantMethod   string
		wantProvider string
	}{
		{
			name: "best payment method wins",
			result: &domain.DecisionResult{
				BestPaymentMethod: &domain.PaymentMethodChoice{Type: "transfer", Provider: "pse_gateway"},
				PaymentRoute:      &domain.PaymentRoute{Method: "wallet", RoutedTo: "mercado_pago"},
			},
			wantMethod: "transfer", wantProvider: "pse_gateway",
		},
		{
			name:       "falls back to decision route",
			result:     &domain.DecisionResult{PaymentRoute: &domain.PaymentRoute{Method: "wallet", RoutedTo: "mercado_pago"}},
			wantMethod: "wallet", wantProvider: "mercado_pago",
		},
		{
			name:       "falls back to card",
			result:     &domain.DecisionResult{Speech: "x"},
			wantMethod: "card", wantProvider: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(ana)
			f.decision.result = tt.result
			toDecisionMode(t, f, 6)
			f.confirm(t, true)

			res := f.dispatch(t, wdomain.Event{Kind: wdomain.EventProceedRoute})

			expectMode(t, res, wdomain.ModeDecisionResult)
			req := f.strategy.requests[0]
			if req.PaymentMethod != tt.wantMethod || req.Provider != tt.wantProvider {
				t.Errorf("expected %s/%s, got %s/%s", tt.wantMethod, tt.wantProvider, req.PaymentMethod, req.Provider)
			}
			if req.Amount != 4200 || req.Currency != "MXN" {
				t.Errorf("expected captured amount and currency, got %v %s", req.Amount, req.Currency)
			}
			if req.Metadata["customer_id"] != "c1" {
				t.Errorf("expected customer_id metadata, got %v", req.Metadata)
			}
			if _, ok := req.Metadata["channel"]; ok {
				t.Error("expected no channel metadata when channel is blank")
			}
		})
	}
}

func TestProceedRoute_SuccessNarration(t *testing.T) {
	f := newFixture(ana)
	toDecisionMode(t, f, 6)
	f.confirm(t, true)

	res := f.dispatch(t, wdomain.Event{Kind: wdomain.EventProceedRoute})

	lines := assistantLines(res)
	for _, want := range []string{"✅ Ruta de pago confirmada:", "- Método: card", "- Destino: stripe", "- Monto: 4200 MXN", "1. Verificar token", "2. Cobrar"} {
		if !containsLine(lines, want) {
			t.Errorf("missing %q in %v", want, lines)
		}
	}
}

func TestProceedRoute_FailureKeepsDecisionForRetry(t *testing.T) {
	f := newFixture(ana)
	toDecisionMode(t, f, 6)
	f.confirm(t, true)

	f.strategy.err = &domain.ErrCircuitOpen{Service: "strategy"}
	res := f.dispatch(t, wdomain.Event{Kind: wdomain.EventProceedRoute})

	expectMode(t, res, wdomain.ModeDecisionResult)
	if !containsLine(assistantLines(res), "⚠️ Error al generar la ruta de pago: servicio strategy no disponible temporalmente") {
		t.Errorf("unexpected lines %v", assistantLines(res))
	}
	if res.Snapshot.Decision == nil {
		t.Fatal("expected decision to be kept after routing failure")
	}

	f.strategy.err = nil
	res = f.dispatch(t, wdomain.Event{Kind: wdomain.EventProceedRoute})
	if !containsLine(assistantLines(res), "✅ Ruta de pago confirmada:") {
		t.Errorf("expected retry to succeed, got %v", assistantLines(res))
	}
	if len(f.decision.requests) != 1 {
		t.Errorf("decision must not be repeated, got %d calls", len(f.decision.requests))
	}
}

func TestFinalize_ReturnsToIdle(t *testing.T) {
	f := newFixture(ana)
	toDecisionMode(t, f, 6)
	f.confirm(t, true)

	res := f.dispatch(t, wdomain.Event{Kind: wdomain.EventFinalize})

	expectMode(t, res, wdomain.ModeIdle)
	if res.Snapshot.Decision != nil {
		t.Error("expected decision discarded")
	}
	if !containsLine(assistantLines(res), "Decisión finalizada. ¿Qué más quieres hacer?") {
		t.Errorf("unexpected lines %v", assistantLines(res))
	}

	_, err := f.wizard.Dispatch(context.Background(), wdomain.Event{Kind: wdomain.EventProceedRoute})
	var invalid *domain.ErrInvalidTransition
	if !errors.As(err, &invalid) {
		t.Errorf("expected proceed_route to be rejected outside decision_result, got %v", err)
	}
}

func TestDispatch_BusyGateRejectsConcurrentEvents(t *testing.T) {
	f := newFixture(ana)
	f.dir.gate = make(chan struct{})
	f.dir.started = make(chan struct{}, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := f.wizard.Dispatch(context.Background(), wdomain.Event{Kind: wdomain.EventStartList}); err != nil {
			t.Errorf("first dispatch failed: %v", err)
		}
	}()

	select {
	case <-f.dir.started:
	case <-time.After(2 * time.Second):
		t.Fatal("collaborator call never started")
	}

	if !f.wizard.Snapshot().Loading {
		t.Error("expected loading while a call is in flight")
	}
	_, err := f.wizard.Dispatch(context.Background(), wdomain.Event{Kind: wdomain.EventCancel})
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(f.dir.gate)
	wg.Wait()

	if f.dir.listCalls != 1 {
		t.Errorf("expected a single collaborator call, got %d", f.dir.listCalls)
	}
	if f.wizard.Snapshot().Loading {
		t.Error("expected loading cleared after the call settled")
	}
	if got := f.metrics.GetWizardSnapshot().BusyRejections; got != 1 {
		t.Errorf("expected 1 busy rejection, got %d", got)
	}
}

func TestTransitionTable(t *testing.T) {
	for _, m := range wdomain.AllModes {
		if !service.Accepts(m, wdomain.EventCancel) {
			t.Errorf("mode %s must accept cancel", m)
		}
		neutral := m == wdomain.ModeIdle || m == wdomain.ModeListDone
		if service.Accepts(m, wdomain.EventStartCreate) != neutral {
			t.Errorf("mode %s: start_create accepted=%v", m, !neutral)
		}
		if m.IsTextCapture() != service.Accepts(m, wdomain.EventSubmitText) {
			t.Errorf("mode %s: submit_text entry mismatch", m)
		}
		if m.IsConfirm() != service.Accepts(m, wdomain.EventConfirm) {
			t.Errorf("mode %s: confirm entry mismatch", m)
		}
		if m.IsSelect() != service.Accepts(m, wdomain.EventSelectCustomer) {
			t.Errorf("mode %s: select entry mismatch", m)
		}
		if service.Accepts(m, wdomain.EventProceedRoute) != (m == wdomain.ModeDecisionResult) {
			t.Errorf("mode %s: proceed_route entry mismatch", m)
		}
	}
}

func TestDecisionFlow_CancelledRequestStillReachesCollaborator(t *testing.T) {
	f := newFixture(ana)
	toDecisionMode(t, f, len(decisionInputs))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	res, err := f.wizard.Dispatch(ctx, wdomain.Event{Kind: wdomain.EventConfirm, Confirm: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectMode(t, res, wdomain.ModeDecisionResult)
	if len(f.decision.requests) != 1 {
		t.Fatalf("expected one decision request, got %d", len(f.decision.requests))
	}
}
