// Package handler provides HTTP handlers for the TripAtlas API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/tripatlas/tripatlas/internal/api/models"
	"github.com/tripatlas/tripatlas/internal/api/response"
	"github.com/tripatlas/tripatlas/internal/provider/resilience"
)

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	db        Pinger
	cache     redis.UniversalClient
}

// NewOpsHandler creates a new OpsHandler. The registry, database, and cache
// are optional; nil dependencies are skipped in readiness and status checks.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, db Pinger, cache redis.UniversalClient) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		db:        db,
		cache:     cache,
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
// Fails when a required backing store is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := models.HealthStatusOK
	details := map[string]interface{}{}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status = models.HealthStatusFail
			details["database"] = err.Error()
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx).Err(); err != nil {
			// The cache is an accelerator, not a requirement.
			if status == models.HealthStatusOK {
				status = models.HealthStatusDegraded
			}
			details["redis"] = err.Error()
		}
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	if len(details) > 0 {
		health.Details = details
	}

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	overall := models.HealthStatusOK

	var subsystems []models.SubsystemStatus
	if h.db != nil {
		sub := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
		if err := h.db.Ping(ctx); err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			overall = models.HealthStatusFail
		}
		subsystems = append(subsystems, sub)
	}
	if h.cache != nil {
		sub := models.SubsystemStatus{Name: "redis", Status: models.HealthStatusOK}
		if err := h.cache.Ping(ctx).Err(); err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusDegraded
			sub.Detail = &detail
			if overall == models.HealthStatusOK {
				overall = models.HealthStatusDegraded
			}
		}
		subsystems = append(subsystems, sub)
	}

	var providers []models.ProviderStatus
	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			providers = append(providers, providerStatus(ph))
			if ph.IsUnhealthy() && overall == models.HealthStatusOK {
				overall = models.HealthStatusDegraded
			}
		}
	}

	status := models.SystemStatus{
		Status:     overall,
		Time:       models.Timestamp(time.Now()),
		Subsystems: subsystems,
		Providers:  providers,
	}
	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	status := models.HealthStatusOK
	switch ph.CircuitState {
	case gobreaker.StateHalfOpen:
		status = models.HealthStatusDegraded
	case gobreaker.StateOpen:
		status = models.HealthStatusFail
	}
	return models.ProviderStatus{
		Provider:     ph.Name,
		Status:       status,
		CircuitState: ph.CircuitState.String(),
		Requests:     ph.Counts.Requests,
		Failures:     ph.Counts.TotalFailures,
	}
}
