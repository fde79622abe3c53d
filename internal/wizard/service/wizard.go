// Package service: wizard.go implementa a máquina de estados do assistente.
//
// ============================================================
// ARQUITETURA: tabela de transições + estado etiquetado
// ============================================================
//
// Cada evento da UI passa por Wizard.Dispatch:
//  1. O loading gate (bulkhead de capacidade 1) é ocupado sem bloquear.
//     Se já existe uma chamada em andamento, o evento é recusado (ErrBusy).
//  2. O par (modo atual, tipo de evento) é procurado na tabela de transições.
//  3. O handler valida a entrada, acrescenta mensagens ao histórico, chama os
//     colaboradores quando precisa e instala o próximo estado.
//  4. O resultado traz as mensagens acrescentadas e o snapshot final.
//
// Só existe um escritor por vez (o dono do gate). O mutex protege o estado
// para leituras concorrentes de Snapshot.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/port"
	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
)

// wizardTracer é o tracer OpenTelemetry do módulo wizard.
var wizardTracer = otel.Tracer("wizard/service")

// Deps são os colaboradores de um wizard.
type Deps struct {
	Directory port.CustomerDirectory
	Decision  port.DecisionCaller
	Strategy  port.StrategyCaller
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// Wizard é uma sessão do assistente: estado, histórico e snapshot de clientes.
type Wizard struct {
	id   string
	deps Deps

	gate *resilience.Bulkhead

	mu         sync.RWMutex
	st         state
	customers  []domain.Customer
	transcript *wdomain.Transcript
}

// NewWizard cria um wizard em idle com a saudação inicial no histórico.
func NewWizard(id string, deps Deps) *Wizard {
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	w := &Wizard{
		id:         id,
		deps:       deps,
		gate:       resilience.NewBulkhead(1),
		st:         idleState{},
		transcript: wdomain.NewTranscript(),
	}
	w.say(msgGreeting)
	return w
}

// ID devolve o id da sessão.
func (w *Wizard) ID() string { return w.id }

// Mode devolve o modo ativo.
func (w *Wizard) Mode() wdomain.Mode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.st.mode()
}

// Dispatch processa um evento. Nunca enfileira: com uma chamada em andamento
// devolve domain.ErrBusy sem tocar no estado nem no histórico.
func (w *Wizard) Dispatch(ctx context.Context, ev wdomain.Event) (*wdomain.DispatchResult, error) {
	if !w.gate.TryAcquire() {
		w.deps.Metrics.IncrBusyRejection()
		return nil, domain.ErrBusy
	}
	defer w.gate.Release()

	// a chamada ao colaborador termina mesmo se o navegador desconectar
	ctx = context.WithoutCancel(ctx)

	from := w.Mode()
	ctx, span := wizardTracer.Start(ctx, "Wizard.Dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("wizard.session_id", w.id),
		attribute.String("wizard.mode", string(from)),
		attribute.String("wizard.event", string(ev.Kind)),
	)

	handle, ok := lookup(from, ev.Kind)
	if !ok {
		if ev.Kind != wdomain.EventSubmitText {
			return nil, &domain.ErrInvalidTransition{Mode: string(from), Event: string(ev.Kind)}
		}
		handle = (*Wizard).nudge
	}

	mark := w.transcript.Len()
	if err := handle(w, ctx, ev); err != nil {
		w.deps.Logger.Error("wizard dispatch failed",
			zap.String("session_id", w.id),
			zap.String("mode", string(from)),
			zap.String("event", string(ev.Kind)),
			zap.Error(err),
		)
		span.RecordError(err)
		return nil, err
	}

	to := w.Mode()
	w.deps.Metrics.RecordTransition(string(from), string(to), string(ev.Kind))
	span.SetAttributes(attribute.String("wizard.next_mode", string(to)))

	w.deps.Logger.Debug("wizard transition",
		zap.String("session_id", w.id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("event", string(ev.Kind)),
	)

	return &wdomain.DispatchResult{
		Appended: w.transcript.Since(mark),
		Snapshot: w.snapshot(false),
	}, nil
}

// Snapshot devolve o estado renderizável atual.
func (w *Wizard) Snapshot() *wdomain.Snapshot {
	return w.snapshot(w.gate.Busy())
}

func (w *Wizard) snapshot(loading bool) *wdomain.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	mode := w.st.mode()
	snap := &wdomain.Snapshot{
		SessionID:    w.id,
		Mode:         mode,
		Loading:      loading,
		InputEnabled: mode.IsTextCapture() && !loading,
		Actions:      actionsFor(mode),
		Status:       statusLine(w.st, w.customers),
		Transcript:   w.transcript.Messages(),
	}
	if mode.IsSelect() {
		snap.Customers = append([]domain.Customer(nil), w.customers...)
	}
	if ds, ok := w.st.(decisionState); ok && ds.result != nil {
		snap.Decision = ds.result
	}
	return snap
}

// ============================================================
// Helpers usados pelos handlers
// ============================================================

func (w *Wizard) setState(s state) {
	w.mu.Lock()
	w.st = s
	w.mu.Unlock()
}

func (w *Wizard) current() state {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.st
}

func (w *Wizard) say(lines ...string) {
	w.transcript.Append(wdomain.SpeakerAssistant, lines...)
}

// echo registra o texto do operador; em branco vira um marcador explícito.
func (w *Wizard) echo(text string) {
	w.transcript.Append(wdomain.SpeakerUser, echoText(text))
}

// reject mantém o modo e acrescenta exatamente uma mensagem corretiva.
func (w *Wizard) reject(mode wdomain.Mode, lines ...string) {
	w.deps.Metrics.IncrValidationRejection(string(mode))
	w.say(lines...)
}

// toIdle volta ao estado neutro, descartando qualquer contexto de fluxo.
func (w *Wizard) toIdle() {
	w.setState(idleState{})
	w.say(msgActions)
}

// customer resolve um id no snapshot de clientes carregado por último.
func (w *Wizard) customer(id string) (domain.Customer, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, c := range w.customers {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Customer{}, false
}

// loadCustomers substitui o snapshot de clientes. Em falha o erro é narrado
// e a lista fica vazia, como se não houvesse clientes.
func (w *Wizard) loadCustomers(ctx context.Context) []domain.Customer {
	var customers []domain.Customer
	err := w.observe("directory", "list_customers", func() error {
		var err error
		customers, err = w.deps.Directory.ListCustomers(ctx)
		return err
	})
	if err != nil {
		w.say(fmt.Sprintf("⚠️ Error al cargar clientes: %s", domain.UserMessage(err)))
		customers = nil
	}

	w.mu.Lock()
	w.customers = customers
	w.mu.Unlock()
	return customers
}

// observe mede uma chamada de colaborador e conta falhas.
func (w *Wizard) observe(service, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	w.deps.Metrics.RecordCollaboratorDuration(operation, time.Since(start))
	if err != nil {
		w.deps.Metrics.IncrExternalError(service)
		w.deps.Logger.Warn("collaborator call failed",
			zap.String("session_id", w.id),
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	return err
}

// stateAs recupera a variante esperada pelo handler. A tabela garante o tipo;
// uma divergência é erro de programação.
func stateAs[T state](w *Wizard) (T, error) {
	st, ok := w.current().(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("wizard %s: unexpected state %T in mode %s", w.id, w.current(), w.Mode())
	}
	return st, nil
}
