package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
}

// ProviderStatus represents the status of one upstream client.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	Requests      uint32       `json:"requests"`
	Failures      uint32       `json:"consecutiveFailures"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}
