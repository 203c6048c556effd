package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// RefreshMessage represents a refresh job message.
type RefreshMessage struct {
	JobType string `json:"job_type"`
	// Cities overrides the configured targets for this run, using the
	// default forecast horizon.
	Cities []string `json:"cities,omitempty"`
	// Reindex forces a catalog re-embedding pass for this run.
	Reindex bool `json:"reindex,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	// Parse message.
	var refreshMsg RefreshMessage
	if err := json.Unmarshal(msg.Data, &refreshMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	// Handle based on job type.
	var err error
	switch refreshMsg.JobType {
	case "destination_refresh":
		err = h.handleDestinationRefresh(ctx, refreshMsg)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", refreshMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", refreshMsg.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleDestinationRefresh(ctx context.Context, msg RefreshMessage) error {
	h.logger.Info().
		Strs("cities", msg.Cities).
		Bool("reindex", msg.Reindex).
		Msg("starting destination refresh")

	job := h.refreshJob
	if len(msg.Cities) > 0 || msg.Reindex {
		config := h.refreshJob.config
		if len(msg.Cities) > 0 {
			targets := make([]RefreshTarget, 0, len(msg.Cities))
			for _, city := range msg.Cities {
				targets = append(targets, RefreshTarget{City: city, ForecastDays: 7, Priority: 1})
			}
			config.Targets = targets
		}
		if msg.Reindex {
			config.ReindexPOIs = true
		}
		job = NewRefreshJob(RefreshJobConfig{
			Config:         config,
			Logger:         h.logger,
			WeatherService: h.refreshJob.weatherService,
			GeoService:     h.refreshJob.geoService,
			POIService:     h.refreshJob.poiService,
		})
	}

	result := job.Run(ctx)

	h.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("total_targets", result.TotalTargets).
		Msg("destination refresh completed")

	// Consider it successful if more than half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalTargets)
	}

	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// Warm a single destination to verify provider connectivity.
	singleTargetConfig := RefreshConfig{
		Targets:        []RefreshTarget{{City: "北京", ForecastDays: 3, Priority: 1}},
		Concurrency:    1,
		Timeout:        10 * time.Second,
		RefreshWeather: true,
		CheckGeo:       true,
	}

	healthCheckJob := NewRefreshJob(RefreshJobConfig{
		Config:         singleTargetConfig,
		Logger:         h.logger,
		WeatherService: h.refreshJob.weatherService,
		GeoService:     h.refreshJob.geoService,
	})

	result := healthCheckJob.Run(ctx)

	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
