// Package main provides the entrypoint for the TripAtlas API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tripatlas/tripatlas/internal/api"
	"github.com/tripatlas/tripatlas/internal/api/middleware"
	"github.com/tripatlas/tripatlas/internal/auth"
	"github.com/tripatlas/tripatlas/internal/config"
	"github.com/tripatlas/tripatlas/internal/database"
	"github.com/tripatlas/tripatlas/internal/geo"
	"github.com/tripatlas/tripatlas/internal/geo/amap"
	"github.com/tripatlas/tripatlas/internal/itinerary"
	plannerdashscope "github.com/tripatlas/tripatlas/internal/planner/dashscope"
	"github.com/tripatlas/tripatlas/internal/poi"
	poidashscope "github.com/tripatlas/tripatlas/internal/poi/dashscope"
	"github.com/tripatlas/tripatlas/internal/provider/resilience"
	"github.com/tripatlas/tripatlas/internal/telemetry"
	"github.com/tripatlas/tripatlas/internal/trip"
	"github.com/tripatlas/tripatlas/internal/weather"
	"github.com/tripatlas/tripatlas/internal/weather/qweather"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "tripatlas-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting TripAtlas API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TelemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.TelemetryEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Connect to Redis (optional, POI search cache)
	var cache redis.UniversalClient
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
			log.Warn().Err(pingErr).Msg("redis unreachable, search cache disabled")
		} else {
			cache = redisClient
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
		}
	}

	// Initialize JWT service
	jwtSigningKey := cfg.JWTSigningKey
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
	})

	// Resilient upstream clients, registered for circuit state reporting
	registry := resilience.NewRegistry()

	amapHTTP := resilience.NewClient(resilience.DefaultClientConfig(amap.ProviderName))
	registry.Register(amap.ProviderName, amapHTTP)
	geoProvider := amap.NewClient(amap.ClientConfig{
		APIKey:     cfg.AMapAPIKey,
		HTTPClient: amapHTTP,
		Logger:     log,
	})
	geoService := geo.NewService(geo.ServiceConfig{
		Provider:      geoProvider,
		Logger:        log,
		HoursCacheTTL: cfg.HoursCacheTTL,
	})
	log.Info().Msg("geo service initialized")

	qweatherHTTP := resilience.NewClient(resilience.DefaultClientConfig(qweather.ProviderName))
	registry.Register(qweather.ProviderName, qweatherHTTP)
	weatherProvider := qweather.NewClient(qweather.ClientConfig{
		APIKey:     cfg.QWeatherAPIKey,
		JWT:        cfg.QWeatherJWT,
		BaseURL:    cfg.QWeatherHost,
		HTTPClient: qweatherHTTP,
		Logger:     log,
	})
	weatherService := weather.NewService(weatherProvider, log,
		weather.WithCacheTTL(cfg.WeatherCacheTTL))
	log.Info().Msg("weather service initialized")

	plannerHTTP := resilience.NewClient(resilience.DefaultClientConfig(plannerdashscope.ProviderName))
	registry.Register(plannerdashscope.ProviderName, plannerHTTP)
	planner := plannerdashscope.NewClient(plannerdashscope.ClientConfig{
		APIKey:     cfg.DashScopeAPIKey,
		HTTPClient: plannerHTTP,
		Logger:     log,
	})

	embedderHTTP := resilience.NewClient(resilience.DefaultClientConfig(poidashscope.ProviderName))
	registry.Register(poidashscope.ProviderName, embedderHTTP)
	embedder := poidashscope.NewEmbedder(poidashscope.EmbedderConfig{
		APIKey:     cfg.DashScopeAPIKey,
		HTTPClient: embedderHTTP,
		Logger:     log,
	})

	poiRepo := poi.NewPostgresRepository(pool)
	poiService := poi.NewService(poiRepo, embedder, cache, log)
	log.Info().Msg("poi service initialized")

	annotator := itinerary.NewAnnotator(geoService, log)
	itineraryService := itinerary.NewService(planner, annotator, poiService, weatherService, log)
	log.Info().Msg("itinerary service initialized")

	tripRepo := trip.NewPostgresRepository(pool)
	tripService := trip.NewService(tripRepo)
	log.Info().Msg("trip service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          metrics,
		JWTService:       jwtService,
		ItineraryService: itineraryService,
		TripService:      tripService,
		WeatherService:   weatherService,
		POIService:       poiService,
		GeoService:       geoService,
		Registry:         registry,
		DB:               pool,
		Cache:            cache,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
