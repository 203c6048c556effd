// Package weather provides daily forecasts for trip destinations.
package weather

import (
	"context"
	"errors"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrCityNotFound        = errors.New("city not found")
	ErrMissingAPIKey       = errors.New("weather provider API key not configured")
)

// Source identifies where forecast data came from.
type Source string

const (
	// SourceProvider means real provider data.
	SourceProvider Source = "provider"

	// SourceFallback means generated sample data used when the provider is
	// unavailable. Display layers should label it as an estimate.
	SourceFallback Source = "fallback"
)

// City is a resolved forecast location.
type City struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// DailyForecast is the forecast for a single calendar day.
type DailyForecast struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	TempMinC     int     `json:"tempMinC"`
	TempMaxC     int     `json:"tempMaxC"`
	TextDay      string  `json:"textDay"`
	TextNight    string  `json:"textNight,omitempty"`
	PrecipMM     float64 `json:"precipMm"`
	WindScaleDay string  `json:"windScaleDay,omitempty"`
	Humidity     int     `json:"humidity,omitempty"`
	TravelAdvice string  `json:"travelAdvice,omitempty"`
}

// Forecast is a multi-day forecast for a destination.
type Forecast struct {
	City      City            `json:"city"`
	Daily     []DailyForecast `json:"daily"`
	Source    Source          `json:"source"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Provider defines the interface for weather data providers.
type Provider interface {
	// LookupCity resolves a city name to a provider location.
	LookupCity(ctx context.Context, name string) (City, error)

	// DailyForecast fetches a daily forecast for a provider location ID.
	DailyForecast(ctx context.Context, locationID string, days int) ([]DailyForecast, error)

	// Name returns the provider name for logging.
	Name() string
}

// TravelAdvice derives a clothing and rain hint from a day's forecast.
func TravelAdvice(tempMaxC int, precipMM float64) string {
	var advice string
	switch {
	case tempMaxC < 5:
		advice = "heavy coat weather"
	case tempMaxC < 15:
		advice = "bring a jacket"
	case tempMaxC < 25:
		advice = "long sleeves recommended"
	default:
		advice = "light clothing is fine"
	}

	switch {
	case precipMM >= 0.3:
		advice += ", pack an umbrella"
	case precipMM > 0:
		advice += ", light rain possible"
	}

	return advice
}
