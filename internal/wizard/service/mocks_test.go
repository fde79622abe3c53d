package service_test

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/observability"
	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/service"
)

// --- Mocks ---

type mockDirectory struct {
	mu        sync.Mutex
	customers []domain.Customer
	listErr   error
	createErr error
	updateErr error
	deleteErr error

	// gate, quando definido, segura ListCustomers até ser fechado.
	gate    chan struct{}
	started chan struct{}

	listCalls int
	created   []domain.CustomerInput
	updatedID string
	updated   []domain.CustomerInput
	deleted   []string
	ctxErrs   []error
}

func (m *mockDirectory) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.Customer(nil), m.customers...), nil
}

func (m *mockDirectory) CreateCustomer(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.created = append(m.created, in)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &domain.Customer{ID: "new", Name: in.Name, Email: in.Email, Phone: in.Phone}, nil
}

func (m *mockDirectory) UpdateCustomer(_ context.Context, id string, in domain.CustomerInput) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatedID = id
	m.updated = append(m.updated, in)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &domain.Customer{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone}, nil
}

func (m *mockDirectory) DeleteCustomer(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return m.deleteErr
}

type mockDecision struct {
	result   *domain.DecisionResult
	err      error
	requests []*domain.DecisionRequest
}

func (m *mockDecision) RequestDecision(ctx context.Context, req *domain.DecisionRequest) (*domain.DecisionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockStrategy struct {
	route    *domain.PaymentRoute
	err      error
	requests []*domain.RouteRequest
}

func (m *mockStrategy) PaymentRoute(_ context.Context, req *domain.RouteRequest) (*domain.PaymentRoute, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.route, nil
}

func (m *mockStrategy) NegotiationOffer(_ context.Context, _ *domain.NegotiationRequest) (*domain.NegotiationResponse, error) {
	return &domain.NegotiationResponse{Status: "ok"}, nil
}

// --- Helpers ---

type fixture struct {
	dir      *mockDirectory
	decision *mockDecision
	strategy *mockStrategy
	metrics  *observability.Metrics
	wizard   *service.Wizard
}

func newFixture(customers ...domain.Customer) *fixture {
	f := &fixture{
		dir:      &mockDirectory{customers: customers},
		decision: &mockDecision{result: &domain.DecisionResult{Speech: "Hola, le ofrecemos un descuento."}},
		strategy: &mockStrategy{route: &domain.PaymentRoute{Method: "card", RoutedTo: "stripe", Amount: 4200, Currency: "MXN", Steps: []string{"Verificar token", "Cobrar"}}},
		metrics:  observability.NewMetrics(),
	}
	f.wizard = service.NewWizard("sess-1", f.deps())
	return f
}

func (f *fixture) deps() service.Deps {
	return service.Deps{
		Directory: f.dir,
		Decision:  f.decision,
		Strategy:  f.strategy,
		Metrics:   f.metrics,
		Logger:    zap.NewNop(),
	}
}

func (f *fixture) dispatch(t *testing.T, ev wdomain.Event) *wdomain.DispatchResult {
	t.Helper()
	res, err := f.wizard.Dispatch(context.Background(), ev)
	if err != nil {
		t.Fatalf("dispatch %s: unexpected error: %v", ev.Kind, err)
	}
	return res
}

func (f *fixture) submit(t *testing.T, text string) *wdomain.DispatchResult {
	t.Helper()
	return f.dispatch(t, wdomain.Event{Kind: wdomain.EventSubmitText, Text: text})
}

func (f *fixture) confirm(t *testing.T, ok bool) *wdomain.DispatchResult {
	t.Helper()
	return f.dispatch(t, wdomain.Event{Kind: wdomain.EventConfirm, Confirm: ok})
}

func (f *fixture) selectCustomer(t *testing.T, id string) *wdomain.DispatchResult {
	t.Helper()
	return f.dispatch(t, wdomain.Event{Kind: wdomain.EventSelectCustomer, CustomerID: id})
}

func (f *fixture) start(t *testing.T, kind wdomain.EventKind) *wdomain.DispatchResult {
	t.Helper()
	return f.dispatch(t, wdomain.Event{Kind: kind})
}

func expectMode(t *testing.T, res *wdomain.DispatchResult, want wdomain.Mode) {
	t.Helper()
	if res.Snapshot.Mode != want {
		t.Fatalf("expected mode %s, got %s", want, res.Snapshot.Mode)
	}
}

// assistantLines devolve as linhas das mensagens do assistente acrescentadas.
func assistantLines(res *wdomain.DispatchResult) []string {
	var lines []string
	for _, m := range res.Appended {
		if m.Speaker == wdomain.SpeakerAssistant {
			lines = append(lines, m.Lines...)
		}
	}
	return lines
}

func countSpeaker(res *wdomain.DispatchResult, sp wdomain.Speaker) int {
	n := 0
	for _, m := range res.Appended {
		if m.Speaker == sp {
			n++
		}
	}
	return n
}

func containsLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}

var (
	ana   = domain.Customer{ID: "c1", Name: "Ana Ruiz", Email: "ana@ej.com", Phone: "+52 55 1234"}
	bruno = domain.Customer{ID: "c2", Name: "Bruno Díaz", Email: "bruno@ej.com"}
)
