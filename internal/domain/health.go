package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Breaker     string `json:"breaker,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// WizardMetrics is returned by GET /v1/metrics/wizard.
type WizardMetrics struct {
	ActiveSessions        int64   `json:"activeSessions"`
	Transitions           int64   `json:"transitions"`
	ValidationRejections  int64   `json:"validationRejections"`
	BusyRejections        int64   `json:"busyRejections"`
	CollaboratorErrors    int64   `json:"collaboratorErrors"`
	DecisionsRequested    int64   `json:"decisionsRequested"`
	RoutesConfirmed       int64   `json:"routesConfirmed"`
	RouteConversionRate   float64 `json:"routeConversionRate"`
	ValidationRejectRatio float64 `json:"validationRejectRatio"`
	Period                string  `json:"period"`
}
