package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripatlas/tripatlas/internal/geo"
	"github.com/tripatlas/tripatlas/internal/poi"
	"github.com/tripatlas/tripatlas/internal/weather"
)

// RefreshJob keeps destination caches warm so interactive plan requests
// rarely pay for a cold upstream call.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	// Services (optional, nil if not configured)
	weatherService *weather.Service
	geoService     *geo.Service
	poiService     *poi.Service

	// Metrics
	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRefreshes    int64
	SuccessfulRefresh int64
	FailedRefreshes   int64
	WeatherRefresh    int64
	GeoChecks         int64
	POIsReindexed     int64

	// Timings
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config         RefreshConfig
	Logger         zerolog.Logger
	WeatherService *weather.Service
	GeoService     *geo.Service
	POIService     *poi.Service
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultRefreshConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &RefreshJob{
		config:         config,
		logger:         cfg.Logger,
		weatherService: cfg.WeatherService,
		geoService:     cfg.GeoService,
		poiService:     cfg.POIService,
		metrics:        &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalTargets int
	Successful   int
	Failed       int
	Errors       []RefreshError
	Reindexed    int
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Subsystem string
	City      string
	Error     string
}

// Run executes the refresh job for all configured targets.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:    startTime,
		TotalTargets: j.config.TotalTargets(),
	}

	j.logger.Info().
		Int("total_targets", result.TotalTargets).
		Int("concurrency", j.config.Concurrency).
		Msg("starting destination refresh job")

	targets := j.config.OrderedTargets()

	targetsChan := make(chan RefreshTarget, len(targets))
	resultsChan := make(chan targetResult, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, targetsChan, resultsChan)
		}()
	}

	for _, target := range targets {
		targetsChan <- target
	}
	close(targetsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for tr := range resultsChan {
		if tr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, tr.errors...)
	}

	// Run the catalog and connectivity passes once per run, after the
	// per-city warmup.
	if err := j.checkGeo(ctx); err != nil {
		result.Errors = append(result.Errors, RefreshError{Subsystem: "geo", Error: err.Error()})
		result.Failed++
	}
	reindexed, err := j.reindexPOIs(ctx)
	result.Reindexed = reindexed
	if err != nil {
		result.Errors = append(result.Errors, RefreshError{Subsystem: "poi", Error: err.Error()})
		result.Failed++
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("reindexed", result.Reindexed).
		Msg("destination refresh job completed")

	return result
}

type targetResult struct {
	target  RefreshTarget
	success bool
	errors  []RefreshError
}

func (j *RefreshJob) refreshWorker(ctx context.Context, targets <-chan RefreshTarget, results chan<- targetResult) {
	for target := range targets {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshTarget(ctx, target)
		}
	}
}

func (j *RefreshJob) refreshTarget(ctx context.Context, target RefreshTarget) targetResult {
	result := targetResult{
		target:  target,
		success: true,
	}

	targetCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.RefreshWeather && j.weatherService != nil {
		if err := j.refreshWeather(targetCtx, target); err != nil {
			result.errors = append(result.errors, RefreshError{
				Subsystem: "weather",
				City:      target.City,
				Error:     err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.WeatherRefresh, 1)
		}
	}

	return result
}

func (j *RefreshJob) refreshWeather(ctx context.Context, target RefreshTarget) error {
	days := target.ForecastDays
	if days <= 0 {
		days = 3
	}

	forecast, err := j.weatherService.Forecast(ctx, target.City, time.Now(), days)
	if err != nil {
		return err
	}
	// A fallback forecast means the provider call failed and nothing was
	// cached, so the warmup did not achieve anything.
	if forecast.Source == weather.SourceFallback {
		return fmt.Errorf("provider unavailable for %s", target.City)
	}
	return nil
}

func (j *RefreshJob) checkGeo(ctx context.Context) error {
	if !j.config.CheckGeo || j.geoService == nil {
		return nil
	}

	j.logger.Debug().Msg("checking map provider connectivity")

	diagnosis := j.geoService.Diagnose(ctx)
	atomic.AddInt64(&j.metrics.GeoChecks, 1)
	if diagnosis.Status == geo.DiagnosisError {
		return fmt.Errorf("map provider check failed: %s", diagnosis.Message)
	}
	return nil
}

func (j *RefreshJob) reindexPOIs(ctx context.Context) (int, error) {
	if !j.config.ReindexPOIs || j.poiService == nil {
		return 0, nil
	}

	j.logger.Debug().Msg("reindexing poi catalog")

	reindexed, err := j.poiService.Reindex(ctx)
	atomic.AddInt64(&j.metrics.POIsReindexed, int64(reindexed))
	if err != nil {
		return reindexed, fmt.Errorf("catalog reindex stopped after %d entries: %w", reindexed, err)
	}
	return reindexed, nil
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		WeatherRefresh:      atomic.LoadInt64(&j.metrics.WeatherRefresh),
		GeoChecks:           atomic.LoadInt64(&j.metrics.GeoChecks),
		POIsReindexed:       atomic.LoadInt64(&j.metrics.POIsReindexed),
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"weather_refreshes":     m.WeatherRefresh,
		"geo_checks":            m.GeoChecks,
		"pois_reindexed":        m.POIsReindexed,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
