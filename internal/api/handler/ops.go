// Package handler provides HTTP handlers for the ParkScout API.
package handler

import (
	"net/http"
	"time"

	"github.com/parkscout/parkscout/internal/api/models"
	"github.com/parkscout/parkscout/internal/api/response"
	"github.com/parkscout/parkscout/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. registry may be nil, in which case
// no upstreams are reported.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The service is not ready when every registered upstream has an open circuit.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	providers := h.providerStatuses()
	status := overallStatus(providers)

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	if status == models.HealthStatusFail {
		health.Status = models.HealthStatusFail
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - per-upstream circuit and outcome status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	providers := h.providerStatuses()
	status := models.SystemStatus{
		Status:    overallStatus(providers),
		Time:      models.Timestamp(time.Now()),
		Providers: providers,
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.registry.GetAllHealth()
	statuses := make([]models.ProviderStatus, 0, len(all))
	for _, ph := range all {
		ps := models.ProviderStatus{
			Provider:      ph.Name,
			Status:        models.HealthStatusOK,
			CircuitState:  ph.CircuitState.String(),
			Requests:      ph.Counts.Requests,
			Failures:      ph.Counts.ConsecutiveFailures,
			LastSuccessAt: models.TimestampPtr(ph.LastSuccessAt),
			LastFailureAt: models.TimestampPtr(ph.LastFailureAt),
		}
		switch {
		case ph.IsUnhealthy():
			ps.Status = models.HealthStatusFail
		case ph.IsDegraded():
			ps.Status = models.HealthStatusDegraded
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}
		statuses = append(statuses, ps)
	}
	return statuses
}

// overallStatus is OK when every upstream is OK, FAIL when every upstream is
// failing, and DEGRADED otherwise. No upstreams is OK.
func overallStatus(providers []models.ProviderStatus) models.HealthStatus {
	if len(providers) == 0 {
		return models.HealthStatusOK
	}
	var ok, failed int
	for _, p := range providers {
		switch p.Status {
		case models.HealthStatusOK:
			ok++
		case models.HealthStatusFail:
			failed++
		}
	}
	switch {
	case ok == len(providers):
		return models.HealthStatusOK
	case failed == len(providers):
		return models.HealthStatusFail
	default:
		return models.HealthStatusDegraded
	}
}
