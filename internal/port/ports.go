// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the wizard engine
// from the HTTP collaborators it orchestrates, so every branch of the
// state machine is testable without a network.
package port

import (
	"context"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
)

// CustomerDirectory is the customer directory collaborator (/customers).
type CustomerDirectory interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id string, in domain.CustomerInput) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

// DecisionCaller invokes the collections decision service.
type DecisionCaller interface {
	RequestDecision(ctx context.Context, req *domain.DecisionRequest) (*domain.DecisionResult, error)
}

// StrategyCaller invokes the strategy service (routing and negotiation).
type StrategyCaller interface {
	PaymentRoute(ctx context.Context, req *domain.RouteRequest) (*domain.PaymentRoute, error)
	NegotiationOffer(ctx context.Context, req *domain.NegotiationRequest) (*domain.NegotiationResponse, error)
}

// TokenSource provides the bearer token attached to collaborator calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Len() int
}
