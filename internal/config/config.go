// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-driven settings shared by the API server and
// the worker. Database settings live in internal/database.
type Config struct {
	// Env is the deployment environment (development, staging, production).
	Env string `envconfig:"APP_ENV" default:"development"`

	// Port is the HTTP listen port for the API server.
	Port string `envconfig:"APP_PORT" default:"8080"`

	// JWTSigningKey signs API access tokens.
	JWTSigningKey string `envconfig:"JWT_SIGNING_KEY"`

	// DashScopeAPIKey authenticates LLM and embedding calls.
	DashScopeAPIKey string `envconfig:"DASHSCOPE_API_KEY"`

	// AMapAPIKey authenticates geocoding and distance calls.
	AMapAPIKey string `envconfig:"AMAP_API_KEY"`

	// QWeatherAPIKey authenticates weather calls.
	QWeatherAPIKey string `envconfig:"QWEATHER_API_KEY"`

	// QWeatherJWT is an optional bearer token for QWeather accounts that
	// use JWT auth.
	QWeatherJWT string `envconfig:"QWEATHER_JWT"`

	// QWeatherHost overrides the QWeather API host for accounts with a
	// dedicated endpoint.
	QWeatherHost string `envconfig:"QWEATHER_HOST"`

	// RedisAddr is the Redis address for the POI search cache. Empty
	// disables the cache.
	RedisAddr string `envconfig:"REDIS_ADDR"`

	// WeatherCacheTTL is how long forecasts stay cached.
	WeatherCacheTTL time.Duration `envconfig:"WEATHER_CACHE_TTL" default:"30m"`

	// HoursCacheTTL is how long POI opening hours stay cached.
	HoursCacheTTL time.Duration `envconfig:"HOURS_CACHE_TTL" default:"6h"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	// TelemetryEnabled turns on OTLP export.
	TelemetryEnabled bool `envconfig:"OTEL_ENABLED" default:"false"`

	// PubSubProjectID is the GCP project for worker job delivery.
	PubSubProjectID string `envconfig:"PUBSUB_PROJECT_ID"`

	// PubSubSubscription is the subscription the worker consumes.
	PubSubSubscription string `envconfig:"PUBSUB_SUBSCRIPTION" default:"tripatlas-refresh"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
