package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/port"
	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
)

// SessionService guarda os wizards em memória, um por sessão do navegador.
// Sessões expiram por inatividade (TTL deslizante do cache); nada é persistido.
type SessionService struct {
	sessions port.Cache[*Wizard]
	deps     Deps
	newID    func() string
}

// NewSessionService creates the session registry.
func NewSessionService(sessions port.Cache[*Wizard], deps Deps) *SessionService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics()
	}
	return &SessionService{
		sessions: sessions,
		deps:     deps,
		newID:    uuid.NewString,
	}
}

// Create abre uma sessão nova em idle com a saudação.
func (s *SessionService) Create(ctx context.Context) (*wdomain.Snapshot, error) {
	_, span := wizardTracer.Start(ctx, "SessionService.Create")
	defer span.End()

	id := s.newID()
	w := NewWizard(id, s.deps)
	s.sessions.Set(id, w)
	s.refreshGauge()

	span.SetAttributes(attribute.String("wizard.session_id", id))
	s.deps.Logger.Info("wizard session created", zap.String("session_id", id))
	return w.Snapshot(), nil
}

// Get devolve o snapshot atual de uma sessão.
func (s *SessionService) Get(ctx context.Context, id string) (*wdomain.Snapshot, error) {
	w, err := s.wizard(id)
	if err != nil {
		return nil, err
	}
	return w.Snapshot(), nil
}

// Dispatch encaminha um evento para o wizard da sessão.
func (s *SessionService) Dispatch(ctx context.Context, id string, ev wdomain.Event) (*wdomain.DispatchResult, error) {
	w, err := s.wizard(id)
	if err != nil {
		return nil, err
	}
	return w.Dispatch(ctx, ev)
}

// Close encerra a sessão. Encerrar uma sessão inexistente é ErrNotFound.
func (s *SessionService) Close(ctx context.Context, id string) error {
	if _, err := s.wizard(id); err != nil {
		return err
	}
	s.sessions.Delete(id)
	s.refreshGauge()
	s.deps.Logger.Info("wizard session closed", zap.String("session_id", id))
	return nil
}

// ActiveSessions returns the number of live sessions.
func (s *SessionService) ActiveSessions() int {
	n := s.sessions.Len()
	s.deps.Metrics.SetActiveSessions(n)
	return n
}

func (s *SessionService) wizard(id string) (*Wizard, error) {
	w, ok := s.sessions.Get(id)
	if !ok || w == nil {
		return nil, &domain.ErrNotFound{Resource: "session", ID: id}
	}
	return w, nil
}

func (s *SessionService) refreshGauge() {
	s.ActiveSessions()
}
