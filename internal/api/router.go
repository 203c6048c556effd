// Package api provides the HTTP API for TripAtlas.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tripatlas/tripatlas/internal/api/handler"
	"github.com/tripatlas/tripatlas/internal/api/middleware"
	"github.com/tripatlas/tripatlas/internal/auth"
	"github.com/tripatlas/tripatlas/internal/geo"
	"github.com/tripatlas/tripatlas/internal/itinerary"
	"github.com/tripatlas/tripatlas/internal/poi"
	"github.com/tripatlas/tripatlas/internal/provider/resilience"
	"github.com/tripatlas/tripatlas/internal/trip"
	"github.com/tripatlas/tripatlas/internal/weather"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version          string
	BuildTime        string
	Logger           zerolog.Logger
	ServiceName      string
	Metrics          *middleware.Metrics
	JWTService       *auth.JWTService
	ItineraryService *itinerary.Service
	TripService      *trip.Service
	WeatherService   *weather.Service
	POIService       *poi.Service
	GeoService       *geo.Service
	Registry         *resilience.Registry
	DB               handler.Pinger
	Cache            redis.UniversalClient
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tripatlas-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.DB, cfg.Cache)
	planHandler := handler.NewPlanHandler(cfg.ItineraryService, cfg.TripService)
	tripHandler := handler.NewTripHandler(cfg.TripService)
	weatherHandler := handler.NewWeatherHandler(cfg.WeatherService)
	poiHandler := handler.NewPOIHandler(cfg.POIService)
	hoursHandler := handler.NewHoursHandler()
	geoHandler := handler.NewGeoHandler(cfg.GeoService, cfg.WeatherService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.JWTService)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Plan generation - LLM-backed, expensive, strict rate limiting.
		// Auth is optional: the user ID is only needed when saving.
		r.Group(func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Post("/plans:generate", planHandler.Generate)
			r.Post("/plans:generate-from-text", planHandler.GenerateFromText)
		})

		// Weather forecasts (public) - standard rate limiting
		r.With(standardRateLimit).Get("/weather/{city}", weatherHandler.Forecast)

		// POI semantic search (public) - standard rate limiting
		r.With(standardRateLimit).Get("/pois:search", poiHandler.Search)

		// Hours status preview (public) - standard rate limiting
		r.With(standardRateLimit).Post("/hours:status", hoursHandler.Status)

		// Map provider diagnostics (public) - expensive, live upstream call
		r.With(expensiveRateLimit).Get("/geo:diagnose", geoHandler.Diagnose)

		// Saved trips (authenticated) - user-based rate limiting
		r.Route("/trips", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit)) // 100 req/min per user
			r.Get("/", tripHandler.List)
			r.Post("/", tripHandler.Create)
			r.Route("/{tripID}", func(r chi.Router) {
				r.Get("/", tripHandler.Get)
				r.Patch("/", tripHandler.Update)
				r.Delete("/", tripHandler.Delete)
			})
		})

		// Admin endpoints (authenticated) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Post("/pois", poiHandler.Index)
			r.Post("/caches:invalidate", geoHandler.InvalidateCaches)
		})
	})

	return r
}
