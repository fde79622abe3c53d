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

// StrategyClient calls the strategy service (payment routing and negotiation offers).
type StrategyClient struct {
	rest
}

// NewStrategyClient creates a new StrategyClient.
func NewStrategyClient(httpClient *http.Client, baseURL string, tokens port.TokenSource, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *StrategyClient {
	return &StrategyClient{rest: newRest(httpClient, baseURL, "strategy", tokens, cb, cfg)}
}

// PaymentRoute requests the provider/method pairing and technical steps for a payment.
func (c *StrategyClient) PaymentRoute(ctx context.Context, req *domain.RouteRequest) (_ *domain.PaymentRoute, err error) {
	ctx, span := startSpan(ctx, "StrategyClient.PaymentRoute",
		attribute.String("route.payment_method", req.PaymentMethod),
		attribute.String("route.currency", req.Currency),
	)
	defer func() { endSpan(span, err) }()

	var resp domain.RouteResponse
	err = c.call(ctx, false, func() error {
		return c.do(ctx, http.MethodPost, "/strategy/payment_route", req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp.Route, nil
}

// NegotiationOffer requests a negotiation proposal for a customer profile.
// The offer is a pure computation on the service side, so it is retried.
func (c *StrategyClient) NegotiationOffer(ctx context.Context, req *domain.NegotiationRequest) (_ *domain.NegotiationResponse, err error) {
	ctx, span := startSpan(ctx, "StrategyClient.NegotiationOffer",
		attribute.String("negotiation.segmento", req.Segmento),
		attribute.Int("negotiation.dpd", req.DPD),
	)
	defer func() { endSpan(span, err) }()

	var resp domain.NegotiationResponse
	err = c.call(ctx, true, func() error {
		return c.do(ctx, http.MethodPost, "/strategy/negotiation_offer", req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
