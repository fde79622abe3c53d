package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	transitions          *prometheus.CounterVec
	validationRejections *prometheus.CounterVec
	busyRejections       prometheus.Counter
	collaboratorDuration *prometheus.HistogramVec
	externalErrors       *prometheus.CounterVec
	outcomes             *prometheus.CounterVec
	activeSessions       prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_wizard_transitions_total",
				Help: "Wizard mode transitions by origin, destination and event.",
			},
			[]string{"from", "to", "event"},
		),
		validationRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_wizard_validation_rejections_total",
				Help: "Field submissions rejected by a validator, by mode.",
			},
			[]string{"mode"},
		),
		busyRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bfa_wizard_busy_rejections_total",
				Help: "Events rejected because a collaborator call was in flight.",
			},
		),
		collaboratorDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_collaborator_duration_seconds",
				Help:    "Duration of collaborator calls by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_wizard_outcomes_total",
				Help: "Terminal wizard outcomes (customer_created, decision_requested, route_confirmed...).",
			},
			[]string{"outcome"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bfa_wizard_active_sessions",
				Help: "Wizard sessions currently held in memory.",
			},
		),
	}
}

// Outcome labels.
const (
	OutcomeCustomerCreated   = "customer_created"
	OutcomeCustomerUpdated   = "customer_updated"
	OutcomeCustomerDeleted   = "customer_deleted"
	OutcomeDecisionRequested = "decision_requested"
	OutcomeRouteConfirmed    = "route_confirmed"
)

// RecordTransition counts a mode change (or a self-transition) caused by an event.
func (m *Metrics) RecordTransition(from, to, event string) {
	m.transitions.WithLabelValues(from, to, event).Inc()
}

// IncrValidationRejection counts a field rejected in the given mode.
func (m *Metrics) IncrValidationRejection(mode string) {
	m.validationRejections.WithLabelValues(mode).Inc()
}

// IncrBusyRejection counts an event refused by the loading gate.
func (m *Metrics) IncrBusyRejection() {
	m.busyRejections.Inc()
}

// RecordCollaboratorDuration records the duration of a collaborator call.
func (m *Metrics) RecordCollaboratorDuration(operation string, d time.Duration) {
	m.collaboratorDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrOutcome counts a terminal outcome.
func (m *Metrics) IncrOutcome(outcome string) {
	m.outcomes.WithLabelValues(outcome).Inc()
}

// SetActiveSessions updates the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// GetWizardSnapshot returns a snapshot suitable for GET /v1/metrics/wizard.
func (m *Metrics) GetWizardSnapshot() *domain.WizardMetrics {
	families, err := m.Registry.Gather()
	if err != nil {
		return &domain.WizardMetrics{Period: "all_time"}
	}

	sums := make(map[string]float64, len(families))
	for _, mf := range families {
		sums[mf.GetName()] = sumFamily(mf)
	}

	decisions := getCounterValue(m.outcomes, OutcomeDecisionRequested)
	routes := getCounterValue(m.outcomes, OutcomeRouteConfirmed)
	transitions := sums["bfa_wizard_transitions_total"]
	rejections := sums["bfa_wizard_validation_rejections_total"]

	conversion := float64(0)
	if decisions > 0 {
		conversion = routes / decisions
	}
	rejectRatio := float64(0)
	if transitions+rejections > 0 {
		rejectRatio = rejections / (transitions + rejections)
	}

	return &domain.WizardMetrics{
		ActiveSessions:        int64(sums["bfa_wizard_active_sessions"]),
		Transitions:           int64(transitions),
		ValidationRejections:  int64(rejections),
		BusyRejections:        int64(sums["bfa_wizard_busy_rejections_total"]),
		CollaboratorErrors:    int64(sums["bfa_external_errors_total"]),
		DecisionsRequested:    int64(decisions),
		RoutesConfirmed:       int64(routes),
		RouteConversionRate:   conversion,
		ValidationRejectRatio: rejectRatio,
		Period:                "all_time",
	}
}

// sumFamily soma todas as séries de contadores/gauges de uma família.
func sumFamily(mf *dto.MetricFamily) float64 {
	total := float64(0)
	for _, metric := range mf.GetMetric() {
		switch {
		case metric.GetCounter() != nil:
			total += metric.GetCounter().GetValue()
		case metric.GetGauge() != nil:
			total += metric.GetGauge().GetValue()
		}
	}
	return total
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
