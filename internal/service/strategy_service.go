package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/port"
)

var strategyTracer = otel.Tracer("service/strategy")

// ============================================================
// Strategy: telas irmãs do assistente (negociação e rota de pagamento)
// ============================================================

// StrategyService valida os pedidos das telas de estratégia e repassa ao
// serviço de estratégia. Não guarda estado.
type StrategyService struct {
	strategy port.StrategyCaller
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStrategyService creates a new strategy service.
func NewStrategyService(strategy port.StrategyCaller, logger *zap.Logger) *StrategyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StrategyService{
		strategy: strategy,
		validate: validator.New(),
		logger:   logger,
	}
}

// NegotiationOffer pede uma proposta de negociação para o perfil informado.
func (s *StrategyService) NegotiationOffer(ctx context.Context, req *domain.NegotiationRequest) (*domain.NegotiationResponse, error) {
	ctx, span := strategyTracer.Start(ctx, "StrategyService.NegotiationOffer")
	defer span.End()

	if err := s.check(req); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("strategy.segmento", req.Segmento),
		attribute.Int("strategy.dpd", req.DPD),
	)

	resp, err := s.strategy.NegotiationOffer(ctx, req)
	if err != nil {
		s.logger.Warn("negotiation offer failed", zap.String("segmento", req.Segmento), zap.Error(err))
		return nil, err
	}

	s.logger.Info("negotiation offer generated",
		zap.String("segmento", req.Segmento),
		zap.Int("dpd", req.DPD),
	)
	return resp, nil
}

// PaymentRoute pede a rota de pagamento para um método e valor.
func (s *StrategyService) PaymentRoute(ctx context.Context, req *domain.RouteRequest) (*domain.RouteResponse, error) {
	ctx, span := strategyTracer.Start(ctx, "StrategyService.PaymentRoute")
	defer span.End()

	if err := s.check(req); err != nil {
		return nil, err
	}
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.Currency == "" {
		req.Currency = "MXN"
	}
	span.SetAttributes(attribute.String("strategy.payment_method", req.PaymentMethod))

	route, err := s.strategy.PaymentRoute(ctx, req)
	if err != nil {
		s.logger.Warn("payment route failed", zap.String("payment_method", req.PaymentMethod), zap.Error(err))
		return nil, err
	}
	if route == nil {
		route = &domain.PaymentRoute{Method: req.PaymentMethod}
	}

	s.logger.Info("payment route generated",
		zap.String("payment_method", req.PaymentMethod),
		zap.String("routed_to", route.RoutedTo),
	)
	return &domain.RouteResponse{Status: "ok", Route: *route}, nil
}

// check traduz o primeiro erro do validator em ErrValidation.
func (s *StrategyService) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &domain.ErrValidation{Field: fe.Field(), Message: "failed on '" + fe.Tag() + "'"}
	}
	return &domain.ErrValidation{Message: err.Error()}
}
