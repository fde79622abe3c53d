// Package handler: wizard_handler.go expõe o assistente de cobrança por HTTP.
//
// ============================================================
// ROTAS
// ============================================================
//
//	POST   /v1/wizard/sessions                       → abre sessão (201 + snapshot)
//	GET    /v1/wizard/sessions/{sessionId}           → snapshot atual
//	POST   /v1/wizard/sessions/{sessionId}/events    → despacha um evento
//	DELETE /v1/wizard/sessions/{sessionId}           → encerra a sessão (204)
//
// O front não decide nada: envia o botão pressionado ou o texto digitado e
// renderiza o snapshot devolvido. Um evento enviado enquanto outro ainda
// espera um colaborador recebe 409 e deve ser reenviado pelo operador.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/service"
)

// tracer é o tracer OpenTelemetry para o módulo wizard/handler.
var tracer = otel.Tracer("wizard/handler")

var validate = validator.New()

// EventRequest é o corpo de POST /v1/wizard/sessions/{sessionId}/events.
type EventRequest struct {
	Type       string `json:"type" validate:"required,oneof=start_create start_edit start_delete start_list start_decision submit_text select_customer confirm cancel proceed_route finalize"`
	Text       string `json:"text,omitempty"`
	CustomerID string `json:"customer_id,omitempty" validate:"required_if=Type select_customer"`
	Confirm    *bool  `json:"confirm,omitempty" validate:"required_if=Type confirm"`
}

// Event converte o corpo no evento do wizard.
func (r EventRequest) Event() wdomain.Event {
	ev := wdomain.Event{
		Kind:       wdomain.EventKind(r.Type),
		Text:       r.Text,
		CustomerID: r.CustomerID,
	}
	if r.Confirm != nil {
		ev.Confirm = *r.Confirm
	}
	return ev
}

// Routes registra as rotas do wizard. dispatchLimit envolve apenas a rota de
// eventos; nil desliga o rate limit.
func Routes(sessions *service.SessionService, dispatchLimit func(http.Handler) http.Handler, logger *zap.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/", CreateSessionHandler(sessions, logger))
		r.Route("/{sessionId}", func(r chi.Router) {
			r.Get("/", GetSessionHandler(sessions, logger))
			r.Delete("/", CloseSessionHandler(sessions, logger))
			r.Group(func(r chi.Router) {
				if dispatchLimit != nil {
					r.Use(dispatchLimit)
				}
				r.Post("/events", DispatchEventHandler(sessions, logger))
			})
		})
	}
}

// CreateSessionHandler abre uma sessão nova em idle.
func CreateSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/wizard/sessions")
		defer span.End()

		snap, err := sessions.Create(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("wizard.session_id", snap.SessionID))
		writeJSON(w, http.StatusCreated, snap)
	}
}

// GetSessionHandler devolve o snapshot atual, inclusive durante uma chamada em andamento.
func GetSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/wizard/sessions/{sessionId}")
		defer span.End()

		id := chi.URLParam(r, "sessionId")
		span.SetAttributes(attribute.String("wizard.session_id", id))

		snap, err := sessions.Get(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// DispatchEventHandler valida o corpo e despacha o evento.
//
// Request:
//
//	{"type": "submit_text", "text": "Ana Ruiz"}
//	{"type": "select_customer", "customer_id": "c1"}
//	{"type": "confirm", "confirm": true}
//
// Response (200 OK):
//
//	{"appended": [...], "snapshot": {...}}
func DispatchEventHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/wizard/sessions/{sessionId}/events")
		defer span.End()

		id := chi.URLParam(r, "sessionId")

		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"type\": \"...\"}")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		span.SetAttributes(
			attribute.String("wizard.session_id", id),
			attribute.String("wizard.event", req.Type),
		)

		res, err := sessions.Dispatch(ctx, id, req.Event())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// CloseSessionHandler encerra a sessão.
func CloseSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/wizard/sessions/{sessionId}")
		defer span.End()

		if err := sessions.Close(ctx, chi.URLParam(r, "sessionId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return "validation error on '" + fe.Field() + "': failed on '" + fe.Tag() + "'"
	}
	return err.Error()
}

// handleServiceError mapeia erros do wizard para HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var invalid *domain.ErrInvalidTransition
	var validation *domain.ErrValidation

	switch {
	case errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrMissingDecision):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &invalid):
		logger.Debug("invalid wizard transition", zap.String("mode", invalid.Mode), zap.String("event", invalid.Event))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("unexpected error in wizard handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
