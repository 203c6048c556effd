package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tripatlas/tripatlas/internal/api/response"
	"github.com/tripatlas/tripatlas/internal/weather"
)

const (
	defaultForecastDays = 3
	maxForecastDays     = 30
)

// WeatherHandler handles weather forecast endpoints.
type WeatherHandler struct {
	weather *weather.Service
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(svc *weather.Service) *WeatherHandler {
	return &WeatherHandler{weather: svc}
}

// Forecast handles GET /v1/weather/{city} - daily forecast with travel advice.
func (h *WeatherHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if city == "" {
		response.BadRequest(w, r, "city is required", nil)
		return
	}

	days := defaultForecastDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxForecastDays {
			response.BadRequest(w, r, "days must be between 1 and 30", nil)
			return
		}
		days = parsed
	}

	start := time.Now()
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(w, r, "start must be formatted as YYYY-MM-DD", nil)
			return
		}
		start = parsed
	}

	forecast, err := h.weather.Forecast(r.Context(), city, start, days)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	response.JSON(w, r, http.StatusOK, forecast)
}
