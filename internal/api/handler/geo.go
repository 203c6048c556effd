package handler

import (
	"net/http"

	"github.com/tripatlas/tripatlas/internal/api/models"
	"github.com/tripatlas/tripatlas/internal/api/response"
	"github.com/tripatlas/tripatlas/internal/geo"
	"github.com/tripatlas/tripatlas/internal/weather"
)

// GeoHandler handles map-provider diagnostics and admin cache operations.
type GeoHandler struct {
	geo     *geo.Service
	weather *weather.Service
}

// NewGeoHandler creates a new GeoHandler. The weather service is optional
// and only used for cache invalidation.
func NewGeoHandler(geoSvc *geo.Service, weatherSvc *weather.Service) *GeoHandler {
	return &GeoHandler{geo: geoSvc, weather: weatherSvc}
}

// Diagnose handles GET /v1/geo:diagnose - run a live connectivity check
// against the map provider.
func (h *GeoHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	diagnosis := h.geo.Diagnose(r.Context())
	response.JSON(w, r, http.StatusOK, diagnosis)
}

// InvalidateCaches handles POST /v1/admin/caches:invalidate - flush the
// geocode, opening-hours, and forecast caches.
func (h *GeoHandler) InvalidateCaches(w http.ResponseWriter, r *http.Request) {
	geocodeEntries, hoursEntries := h.geo.CacheStats()

	weatherEntries := 0
	if h.weather != nil {
		weatherEntries = h.weather.CacheSize()
		h.weather.InvalidateCache()
	}
	h.geo.InvalidateCache()

	response.JSON(w, r, http.StatusOK, models.CacheInvalidationResponse{
		GeocodeEntries: geocodeEntries,
		HoursEntries:   hoursEntries,
		WeatherEntries: weatherEntries,
	})
}
