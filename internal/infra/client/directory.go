package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/port"
)

// DirectoryClient talks to the customer directory (/customers).
type DirectoryClient struct {
	rest
}

// NewDirectoryClient creates a new DirectoryClient.
func NewDirectoryClient(httpClient *http.Client, baseURL string, tokens port.TokenSource, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *DirectoryClient {
	return &DirectoryClient{rest: newRest(httpClient, baseURL, "directory", tokens, cb, cfg)}
}

// ListCustomers fetches the full customer collection. Retried with backoff.
func (c *DirectoryClient) ListCustomers(ctx context.Context) (customers []domain.Customer, err error) {
	ctx, span := startSpan(ctx, "DirectoryClient.ListCustomers")
	defer func() { endSpan(span, err) }()

	err = c.call(ctx, true, func() error {
		customers = nil
		return c.do(ctx, http.MethodGet, "/customers", nil, &customers)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("customers.count", len(customers)))
	return customers, nil
}

// CreateCustomer creates a customer record.
func (c *DirectoryClient) CreateCustomer(ctx context.Context, in domain.CustomerInput) (_ *domain.Customer, err error) {
	ctx, span := startSpan(ctx, "DirectoryClient.CreateCustomer")
	defer func() { endSpan(span, err) }()

	var created domain.Customer
	err = c.call(ctx, false, func() error {
		return c.do(ctx, http.MethodPost, "/customers", in, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateCustomer replaces name, email and phone of a customer.
func (c *DirectoryClient) UpdateCustomer(ctx context.Context, id string, in domain.CustomerInput) (_ *domain.Customer, err error) {
	ctx, span := startSpan(ctx, "DirectoryClient.UpdateCustomer", attribute.String("customer.id", id))
	defer func() { endSpan(span, err) }()

	var updated domain.Customer
	err = c.call(ctx, false, func() error {
		return c.do(ctx, http.MethodPut, "/customers/"+url.PathEscape(id), in, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCustomer removes a customer. The body of a 2xx answer is ignored.
func (c *DirectoryClient) DeleteCustomer(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "DirectoryClient.DeleteCustomer", attribute.String("customer.id", id))
	defer func() { endSpan(span, err) }()

	return c.call(ctx, false, func() error {
		return c.do(ctx, http.MethodDelete, "/customers/"+url.PathEscape(id), nil, nil)
	})
}
