package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/auth"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/service"
	wizardhandler "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/handler"
	wizardservice "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/service"
)

var tracer = otel.Tracer("handler")

// Deps agrupa o que o router precisa. Campos nil desligam as rotas correspondentes.
type Deps struct {
	Sessions *wizardservice.SessionService
	Strategy *service.StrategyService
	Breakers []*gobreaker.CircuitBreaker
	Issuer   *auth.Issuer
	Metrics  *observability.Metrics
	Logger   *zap.Logger

	AuthRequired       bool
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract of the collections assistant frontend.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NewMetrics()
	}
	logger := d.Logger

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(CORS(d.CORSAllowedOrigins))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Breakers))
	r.Get("/readyz", readyzHandler(d.Sessions))
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(BearerMiddleware(d.Issuer, d.AuthRequired, logger))

		// =============================================
		// 1. 🤝 Assistente de cobrança
		// =============================================
		if d.Sessions != nil {
			r.Route("/wizard/sessions", wizardhandler.Routes(
				d.Sessions,
				RateLimit(d.RateLimitRequests, d.RateLimitWindow),
				logger,
			))
		}

		// =============================================
		// 2. 💳 Estratégias (telas irmãs)
		// =============================================
		if d.Strategy != nil {
			r.Post("/strategy/negotiation_offer", negotiationOfferHandler(d.Strategy, logger))
			r.Post("/strategy/payment_route", paymentRouteHandler(d.Strategy, logger))
		}

		// =============================================
		// 3. 📊 Métricas
		// =============================================
		r.Get("/metrics/wizard", wizardMetricsHandler(d.Metrics, d.Sessions))
	})

	return r
}

// ============================================================
// Operacional
// ============================================================

// healthzHandler reporta o estado de cada circuit breaker.
// open → unhealthy, half-open → degraded, closed → healthy.
func healthzHandler(breakers []*gobreaker.CircuitBreaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LastChecked: now},
		}
		for _, cb := range breakers {
			st := cb.State()
			status := "healthy"
			switch st {
			case gobreaker.StateOpen:
				status = "unhealthy"
			case gobreaker.StateHalfOpen:
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: cb.Name(), Status: status, Breaker: st.String(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(sessions *wizardservice.SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":          "ready",
			"active_sessions": sessions.ActiveSessions(),
		})
	}
}

func wizardMetricsHandler(metrics *observability.Metrics, sessions *wizardservice.SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions != nil {
			sessions.ActiveSessions()
		}
		writeJSON(w, http.StatusOK, metrics.GetWizardSnapshot())
	}
}

// ============================================================
// Estratégias: POST /v1/strategy/*
// ============================================================

func negotiationOfferHandler(svc *service.StrategyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/strategy/negotiation_offer")
		defer span.End()

		var req domain.NegotiationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("strategy.segmento", req.Segmento))

		resp, err := svc.NegotiationOffer(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func paymentRouteHandler(svc *service.StrategyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/strategy/payment_route")
		defer span.End()

		var req domain.RouteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("strategy.payment_method", req.PaymentMethod))

		resp, err := svc.PaymentRoute(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
