package models

// Health is the body of the liveness and readiness probes.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// SystemStatus rolls up the record store and the outbound providers.
type SystemStatus struct {
	Status     HealthStatus      `json:"status"`
	Time       Timestamp         `json:"time"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	Providers  []ProviderStatus  `json:"providers"`
}

// SubsystemStatus reports one internal dependency, such as the database.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// ProviderStatus reports an outbound provider, such as the email API, as
// seen by its circuit breaker.
type ProviderStatus struct {
	Provider string       `json:"provider"`
	Status   HealthStatus `json:"status"`
	// Circuit is up, probing or down.
	Circuit string `json:"circuit"`
	// RecentRequests and RecentFailures cover the breaker's current window.
	RecentRequests uint32     `json:"recentRequests"`
	RecentFailures uint32     `json:"recentFailures"`
	LastSuccessAt  *Timestamp `json:"lastSuccessAt,omitempty"`
	LastFailureAt  *Timestamp `json:"lastFailureAt,omitempty"`
	Message        *string    `json:"message,omitempty"`
}
