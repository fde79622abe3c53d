package domain

// ============================================================
// Decisão de cobrança: POST /agent/decision
// ============================================================

// DecisionRequest é o payload enviado ao serviço de decisão.
// Channel vazio é omitido do JSON (o serviço trata ausência como "sem canal").
type DecisionRequest struct {
	CustomerID     string  `json:"customer_id"`
	Segmento       string  `json:"segmento"`
	AmountDue      float64 `json:"amount_due"`
	DPD            int     `json:"dpd"`
	PropensionPago float64 `json:"propension_pago"`
	Currency       string  `json:"currency"`
	Channel        string  `json:"channel,omitempty"`
}

// DecisionResponse é o envelope devolvido pelo serviço de decisão.
type DecisionResponse struct {
	Status   string         `json:"status,omitempty"`
	Decision DecisionResult `json:"decision"`
}

// DecisionResult é a decisão de cobrança: método, rota, proposta e speech.
type DecisionResult struct {
	CustomerID          string               `json:"customer_id,omitempty"`
	BestPaymentMethod   *PaymentMethodChoice `json:"best_payment_method,omitempty"`
	PaymentRoute        *PaymentRoute        `json:"payment_route,omitempty"`
	NegotiationProposal *NegotiationProposal `json:"negotiation_proposal,omitempty"`
	Speech              string               `json:"speech,omitempty"`
}

// PaymentMethodChoice é o meio de pagamento escolhido para o cliente.
type PaymentMethodChoice struct {
	Type     string `json:"type"`
	Provider string `json:"provider,omitempty"`
}

// PaymentRoute é o par provedor/método e os passos técnicos para executar o pagamento.
type PaymentRoute struct {
	Method   string         `json:"method"`
	RoutedTo string         `json:"routed_to,omitempty"`
	Amount   float64        `json:"amount"`
	Currency string         `json:"currency,omitempty"`
	Steps    []string       `json:"steps,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NegotiationProposal é a concessão proposta: discount, installments ou hybrid.
type NegotiationProposal struct {
	Tactic              string   `json:"tactic"`
	DiscountPct         *float64 `json:"discount_pct,omitempty"`
	Installments        *int     `json:"installments,omitempty"`
	InterestRateMonthly *float64 `json:"interest_rate_monthly,omitempty"`
	Conditions          []string `json:"conditions,omitempty"`
}

// ============================================================
// Estratégias: POST /strategy/payment_route e /strategy/negotiation_offer
// ============================================================

// RouteRequest é o payload de POST /strategy/payment_route.
type RouteRequest struct {
	PaymentMethod string            `json:"payment_method" validate:"required"`
	Amount        float64           `json:"amount" validate:"gt=0"`
	Currency      string            `json:"currency,omitempty"`
	Provider      string            `json:"provider,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// RouteResponse é a resposta de POST /strategy/payment_route.
type RouteResponse struct {
	Status string       `json:"status,omitempty"`
	Route  PaymentRoute `json:"route"`
}

// NegotiationRequest é o payload de POST /strategy/negotiation_offer.
type NegotiationRequest struct {
	Segmento       string  `json:"segmento" validate:"required"`
	AmountDue      float64 `json:"amount_due" validate:"gte=0"`
	DPD            int     `json:"dpd" validate:"gte=0"`
	PropensionPago float64 `json:"propension_pago" validate:"gte=0,lte=1"`
}

// NegotiationResponse é a resposta de POST /strategy/negotiation_offer.
type NegotiationResponse struct {
	Status   string              `json:"status"`
	Proposal NegotiationProposal `json:"proposal"`
}
