// Package main provides the entrypoint for the TripAtlas background worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripatlas/tripatlas/internal/config"
	"github.com/tripatlas/tripatlas/internal/database"
	"github.com/tripatlas/tripatlas/internal/geo"
	"github.com/tripatlas/tripatlas/internal/geo/amap"
	"github.com/tripatlas/tripatlas/internal/poi"
	poidashscope "github.com/tripatlas/tripatlas/internal/poi/dashscope"
	"github.com/tripatlas/tripatlas/internal/weather"
	"github.com/tripatlas/tripatlas/internal/weather/qweather"
	"github.com/tripatlas/tripatlas/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// refreshInterval is the fallback schedule used when Pub/Sub delivery is
// not configured.
const refreshInterval = 30 * time.Minute

func main() {
	const serviceName = "tripatlas-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting TripAtlas worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database for the POI catalog
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	// Wire the services the refresh job warms
	geoService := geo.NewService(geo.ServiceConfig{
		Provider: amap.NewClient(amap.ClientConfig{
			APIKey: cfg.AMapAPIKey,
			Logger: log,
		}),
		Logger:        log,
		HoursCacheTTL: cfg.HoursCacheTTL,
	})

	weatherService := weather.NewService(qweather.NewClient(qweather.ClientConfig{
		APIKey:  cfg.QWeatherAPIKey,
		JWT:     cfg.QWeatherJWT,
		BaseURL: cfg.QWeatherHost,
		Logger:  log,
	}), log, weather.WithCacheTTL(cfg.WeatherCacheTTL))

	embedder := poidashscope.NewEmbedder(poidashscope.EmbedderConfig{
		APIKey: cfg.DashScopeAPIKey,
		Logger: log,
	})
	poiService := poi.NewService(poi.NewPostgresRepository(pool), embedder, nil, log)

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         worker.DefaultRefreshConfig(),
		Logger:         log,
		WeatherService: weatherService,
		GeoService:     geoService,
		POIService:     poiService,
	})

	// Health endpoint for the container platform
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		snapshot := refreshJob.MetricsSnapshot()
		fmt.Fprintf(w, `{"total_refreshes":%v,"weather_refreshes":%v,"pois_reindexed":%v}`,
			snapshot["total_refreshes"], snapshot["weather_refreshes"], snapshot["pois_reindexed"])
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Prefer Pub/Sub delivery; fall back to a local schedule without it.
	if cfg.PubSubProjectID != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Fatal().Err(err).Msg("pubsub handler stopped")
			}
		}()
		log.Info().
			Str("subscription", cfg.PubSubSubscription).
			Msg("worker consuming pubsub jobs")
	} else {
		go func() {
			log.Info().Dur("interval", refreshInterval).Msg("worker on local refresh schedule")
			ticker := time.NewTicker(refreshInterval)
			defer ticker.Stop()

			refreshJob.Run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					refreshJob.Run(ctx)
				}
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
