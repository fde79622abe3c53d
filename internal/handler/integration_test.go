package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/handler"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/auth"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/cache"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/client"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/service"
	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
	wizardservice "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/service"
)

// collaborators simula os três serviços externos num único servidor.
type collaborators struct {
	mu        sync.Mutex
	bearers   []string
	decisions []map[string]any
	routes    []map[string]any
	deleteErr bool
}

func (c *collaborators) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		c.mu.Lock()
		c.bearers = append(c.bearers, r.Header.Get("Authorization"))
		c.mu.Unlock()
	}

	mux.HandleFunc("/customers", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"c1","name":"Ana Ruiz","email":"ana@ej.com","phone":"+52 55 1234"}]`))
	})
	mux.HandleFunc("/customers/", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if r.Method == http.MethodDelete && c.deleteErr {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"mensaje":"Cliente no encontrado"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/agent/decision", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode decision body: %v", err)
		}
		c.mu.Lock()
		c.decisions = append(c.decisions, body)
		c.mu.Unlock()
		_, _ = w.Write([]byte(`{"status":"ok","decision":{
			"customer_id":"c1",
			"best_payment_method":{"type":"transfer","provider":"spei"},
			"negotiation_proposal":{"tactic":"descuento","discount_pct":10},
			"speech":"Hola Ana.\nTenemos una propuesta para usted."}}`))
	})
	mux.HandleFunc("/strategy/payment_route", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		c.mu.Lock()
		c.routes = append(c.routes, body)
		c.mu.Unlock()
		_, _ = w.Write([]byte(`{"status":"ok","route":{"method":"transfer","routed_to":"spei","amount":4200,"currency":"MXN","steps":["Generar CLABE","Confirmar"]}}`))
	})
	return mux
}

func newIntegrationRouter(t *testing.T, collab *collaborators) http.Handler {
	t.Helper()
	srv := httptest.NewServer(collab.handler(t))
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond}
	httpClient := &http.Client{Timeout: 5 * time.Second}
	tokens := &auth.ForwardingTokenSource{Issuer: auth.NewIssuer("svc-secret", time.Minute), Service: "cobranza-bfa"}

	strategy := client.NewStrategyClient(httpClient, srv.URL, tokens, resilience.NewCircuitBreaker("strategy", client.BreakerSuccess, logger), cfg)
	sessions := cache.New[*wizardservice.Wizard](time.Minute)
	t.Cleanup(sessions.Close)

	return handler.NewRouter(handler.Deps{
		Sessions: wizardservice.NewSessionService(sessions, wizardservice.Deps{
			Directory: client.NewDirectoryClient(httpClient, srv.URL, tokens, resilience.NewCircuitBreaker("directory", client.BreakerSuccess, logger), cfg),
			Decision:  client.NewDecisionClient(httpClient, srv.URL, tokens, resilience.NewCircuitBreaker("decision", client.BreakerSuccess, logger), cfg),
			Strategy:  strategy,
			Metrics:   metrics,
			Logger:    logger,
		}),
		Strategy: service.NewStrategyService(strategy, logger),
		Metrics:  metrics,
		Logger:   logger,
	})
}

func postEvent(t *testing.T, router http.Handler, sessionID, body string) *wdomain.DispatchResult {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/wizard/sessions/"+sessionID+"/events", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer operator-token")
	rec := serve(router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("%s: expected 200, got %d: %s", body, rec.Code, rec.Body.String())
	}
	var res wdomain.DispatchResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return &res
}

func openSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := serve(router, httptest.NewRequest(http.MethodPost, "/v1/wizard/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var snap wdomain.Snapshot
	_ = json.NewDecoder(rec.Body).Decode(&snap)
	return snap.SessionID
}

func hasLine(res *wdomain.DispatchResult, want string) bool {
	for _, m := range res.Appended {
		for _, l := range m.Lines {
			if l == want {
				return true
			}
		}
	}
	return false
}

// TestIntegration_DecisionAndRoute percorre o fluxo completo de decisão por HTTP,
// com clientes reais contra colaboradores simulados.
func TestIntegration_DecisionAndRoute(t *testing.T) {
	collab := &collaborators{}
	router := newIntegrationRouter(t, collab)
	id := openSession(t, router)

	postEvent(t, router, id, `{"type":"start_decision"}`)
	postEvent(t, router, id, `{"type":"select_customer","customer_id":"c1"}`)
	for _, text := range []string{"vip", "4200", "75", "0.33", "", ""} {
		postEvent(t, router, id, `{"type":"submit_text","text":"`+text+`"}`)
	}

	res := postEvent(t, router, id, `{"type":"confirm","confirm":true}`)
	if res.Snapshot.Mode != wdomain.ModeDecisionResult {
		t.Fatalf("expected decision_result, got %s", res.Snapshot.Mode)
	}
	if !hasLine(res, "Hola Ana.") || !hasLine(res, "Tenemos una propuesta para usted.") {
		t.Errorf("expected multi-line speech, got %+v", res.Appended)
	}
	if res.Snapshot.Decision == nil || res.Snapshot.Decision.NegotiationProposal == nil {
		t.Fatal("expected decision with proposal in snapshot")
	}

	sent := collab.decisions[0]
	if sent["currency"] != "MXN" || sent["segmento"] != "vip" || sent["dpd"] != 75.0 {
		t.Errorf("unexpected decision payload %v", sent)
	}
	if _, ok := sent["channel"]; ok {
		t.Error("expected channel omitted")
	}

	res = postEvent(t, router, id, `{"type":"proceed_route"}`)
	if !hasLine(res, "- Destino: spei") || !hasLine(res, "1. Generar CLABE") {
		t.Errorf("unexpected route narration %+v", res.Appended)
	}
	route := collab.routes[0]
	if route["payment_method"] != "transfer" || route["provider"] != "spei" || route["amount"] != 4200.0 {
		t.Errorf("unexpected route payload %v", route)
	}

	res = postEvent(t, router, id, `{"type":"finalize"}`)
	if res.Snapshot.Mode != wdomain.ModeIdle {
		t.Errorf("expected idle after finalize, got %s", res.Snapshot.Mode)
	}

	for _, b := range collab.bearers {
		if b != "Bearer operator-token" {
			t.Errorf("expected operator token forwarded, got %q", b)
		}
	}
}

// TestIntegration_RemoteErrorIsNarrated garante que a mensagem do colaborador chega ao histórico.
func TestIntegration_RemoteErrorIsNarrated(t *testing.T) {
	collab := &collaborators{deleteErr: true}
	router := newIntegrationRouter(t, collab)
	id := openSession(t, router)

	postEvent(t, router, id, `{"type":"start_delete"}`)
	postEvent(t, router, id, `{"type":"select_customer","customer_id":"c1"}`)
	res := postEvent(t, router, id, `{"type":"confirm","confirm":true}`)

	if res.Snapshot.Mode != wdomain.ModeIdle {
		t.Errorf("expected idle, got %s", res.Snapshot.Mode)
	}
	if !hasLine(res, "⚠️ Error al eliminar: Cliente no encontrado") {
		t.Errorf("expected remote message, got %+v", res.Appended)
	}
}

// TestIntegration_ServiceTokenWithoutOperator usa o token de serviço quando o operador não envia um.
func TestIntegration_ServiceTokenWithoutOperator(t *testing.T) {
	collab := &collaborators{}
	router := newIntegrationRouter(t, collab)

	req := httptest.NewRequest(http.MethodPost, "/v1/strategy/payment_route", strings.NewReader(`{"payment_method":"card","amount":10}`))
	rec := serve(router, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.RouteResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Route.RoutedTo != "spei" {
		t.Errorf("unexpected route %+v", resp.Route)
	}
	if len(collab.bearers) != 1 || !strings.HasPrefix(collab.bearers[0], "Bearer ey") {
		t.Errorf("expected signed service token, got %v", collab.bearers)
	}
}
