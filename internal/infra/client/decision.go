package client

import (
	"context"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/port"
)

// DecisionClient calls the collections decision service.
type DecisionClient struct {
	rest
}

// NewDecisionClient creates a new DecisionClient.
func NewDecisionClient(httpClient *http.Client, baseURL string, tokens port.TokenSource, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *DecisionClient {
	return &DecisionClient{rest: newRest(httpClient, baseURL, "decision", tokens, cb, cfg)}
}

// RequestDecision asks for a collections decision. Never retried: each call
// is a new decision.
func (c *DecisionClient) RequestDecision(ctx context.Context, req *domain.DecisionRequest) (_ *domain.DecisionResult, err error) {
	ctx, span := startSpan(ctx, "DecisionClient.RequestDecision",
		attribute.String("customer.id", req.CustomerID),
		attribute.String("decision.segmento", req.Segmento),
		attribute.Int("decision.dpd", req.DPD),
	)
	defer func() { endSpan(span, err) }()

	var resp domain.DecisionResponse
	err = c.call(ctx, false, func() error {
		return c.do(ctx, http.MethodPost, "/agent/decision", req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp.Decision, nil
}
