package worker_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripatlas/tripatlas/internal/geo"
	"github.com/tripatlas/tripatlas/internal/poi"
	"github.com/tripatlas/tripatlas/internal/weather"
	"github.com/tripatlas/tripatlas/internal/worker"
)

type fakeWeatherProvider struct {
	fail bool
}

func (p *fakeWeatherProvider) LookupCity(_ context.Context, name string) (weather.City, error) {
	if p.fail {
		return weather.City{}, weather.ErrProviderUnavailable
	}
	return weather.City{ID: "101010100", Name: name}, nil
}

func (p *fakeWeatherProvider) DailyForecast(_ context.Context, _ string, days int) ([]weather.DailyForecast, error) {
	if p.fail {
		return nil, weather.ErrProviderUnavailable
	}
	daily := make([]weather.DailyForecast, days)
	for i := range daily {
		daily[i] = weather.DailyForecast{Date: "2026-04-01", TempMinC: 10, TempMaxC: 20, TextDay: "Sunny"}
	}
	return daily, nil
}

func (p *fakeWeatherProvider) Name() string { return "fake-weather" }

type fakeGeoProvider struct {
	fail bool
}

func (p *fakeGeoProvider) Geocode(_ context.Context, _, _ string) (geo.Coordinate, error) {
	if p.fail {
		return geo.Coordinate{}, errors.New("upstream down")
	}
	return geo.Coordinate{Lng: 116.4, Lat: 39.9}, nil
}

func (p *fakeGeoProvider) DrivingDistance(_ context.Context, _, _ geo.Coordinate) (geo.DriveEstimate, error) {
	if p.fail {
		return geo.DriveEstimate{}, errors.New("upstream down")
	}
	return geo.DriveEstimate{DistanceMeters: 5000, DurationSeconds: 600}, nil
}

func (p *fakeGeoProvider) POIOpenHours(_ context.Context, _, _ string) (string, error) {
	return "08:30-17:00", nil
}

func (p *fakeGeoProvider) Name() string { return "fake-geo" }

type fakeEmbedder struct {
	calls int
	fail  bool
}

func (e *fakeEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	e.calls++
	if e.fail {
		return nil, poi.ErrEmbedderUnavailable
	}
	return []float64{1, 0, 0}, nil
}

func (e *fakeEmbedder) Name() string { return "fake-embedder" }

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.RefreshWeather)
	assert.True(t, cfg.CheckGeo)
	assert.False(t, cfg.ReindexPOIs)
	assert.NotEmpty(t, cfg.Targets)
}

func TestDefaultRefreshTargets(t *testing.T) {
	targets := worker.DefaultRefreshTargets()

	// Should have multiple cities
	assert.GreaterOrEqual(t, len(targets), 5)

	// Find Beijing
	var beijing *worker.RefreshTarget
	for i := range targets {
		if targets[i].City == "北京" {
			beijing = &targets[i]
			break
		}
	}
	require.NotNil(t, beijing, "Beijing should be in targets")
	assert.Equal(t, 1, beijing.Priority)
	assert.Equal(t, 7, beijing.ForecastDays)
}

func TestRefreshConfig_OrderedTargets(t *testing.T) {
	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{City: "City B", Priority: 3},
			{City: "City A", Priority: 1},
			{City: "City C", Priority: 2},
		},
	}

	ordered := cfg.OrderedTargets()
	require.Len(t, ordered, 3)
	assert.Equal(t, "City A", ordered[0].City)
	assert.Equal(t, "City C", ordered[1].City)
	assert.Equal(t, "City B", ordered[2].City)
	assert.Equal(t, 3, cfg.TotalTargets())
}

func TestRefreshJob_Run_NoServices(t *testing.T) {
	// Create a job with no services configured
	cfg := worker.RefreshConfig{
		Targets:        []worker.RefreshTarget{{City: "北京", ForecastDays: 3}},
		Concurrency:    1,
		Timeout:        time.Second,
		RefreshWeather: true,
		CheckGeo:       true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: cfg,
		Logger: testLogger(),
	})

	result := job.Run(context.Background())

	// With no services wired, nothing fails and nothing is refreshed
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
}

func TestRefreshJob_Run_WarmsWeather(t *testing.T) {
	logger := testLogger()
	weatherService := weather.NewService(&fakeWeatherProvider{}, logger)

	cfg := worker.RefreshConfig{
		Targets: []worker.RefreshTarget{
			{City: "北京", ForecastDays: 3},
			{City: "成都", ForecastDays: 3},
		},
		Concurrency:    2,
		Timeout:        time.Second,
		RefreshWeather: true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         cfg,
		Logger:         logger,
		WeatherService: weatherService,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, weatherService.CacheSize())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRefreshes)
	assert.Equal(t, int64(2), metrics.WeatherRefresh)
	assert.False(t, metrics.LastRefreshAt.IsZero())
}

func TestRefreshJob_Run_ProviderFailure(t *testing.T) {
	logger := testLogger()
	weatherService := weather.NewService(&fakeWeatherProvider{fail: true}, logger)

	cfg := worker.RefreshConfig{
		Targets:        []worker.RefreshTarget{{City: "北京", ForecastDays: 3}},
		Concurrency:    1,
		Timeout:        time.Second,
		RefreshWeather: true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         cfg,
		Logger:         logger,
		WeatherService: weatherService,
	})

	result := job.Run(context.Background())

	// A fallback forecast does not warm the cache, so the target fails
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "weather", result.Errors[0].Subsystem)
	assert.Equal(t, "北京", result.Errors[0].City)
}

func TestRefreshJob_Run_GeoCheck(t *testing.T) {
	logger := testLogger()
	geoService := geo.NewService(geo.ServiceConfig{Provider: &fakeGeoProvider{}, Logger: logger})

	cfg := worker.RefreshConfig{
		Targets:     []worker.RefreshTarget{{City: "北京"}},
		Concurrency: 1,
		Timeout:     time.Second,
		CheckGeo:    true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:     cfg,
		Logger:     logger,
		GeoService: geoService,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, int64(1), job.GetMetrics().GeoChecks)
}

func TestRefreshJob_Run_GeoCheckFailure(t *testing.T) {
	logger := testLogger()
	geoService := geo.NewService(geo.ServiceConfig{Provider: &fakeGeoProvider{fail: true}, Logger: logger})

	cfg := worker.RefreshConfig{
		Targets:     []worker.RefreshTarget{{City: "北京"}},
		Concurrency: 1,
		Timeout:     time.Second,
		CheckGeo:    true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:     cfg,
		Logger:     logger,
		GeoService: geoService,
	})

	result := job.Run(context.Background())

	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "geo", result.Errors[len(result.Errors)-1].Subsystem)
}

func TestRefreshJob_Run_ReindexPOIs(t *testing.T) {
	logger := testLogger()
	repo := poi.NewInMemoryRepository()
	embedder := &fakeEmbedder{}
	poiService := poi.NewService(repo, embedder, nil, logger)

	ctx := context.Background()
	require.NoError(t, poiService.Index(ctx, &poi.POI{ID: "poi-1", Name: "Palace Museum", Type: "attraction"}))
	require.NoError(t, poiService.Index(ctx, &poi.POI{ID: "poi-2", Name: "Summer Palace", Type: "attraction"}))
	embedder.calls = 0

	cfg := worker.RefreshConfig{
		Targets:     []worker.RefreshTarget{{City: "北京"}},
		Concurrency: 1,
		Timeout:     time.Second,
		ReindexPOIs: true,
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:     cfg,
		Logger:     logger,
		POIService: poiService,
	})

	result := job.Run(ctx)

	assert.Equal(t, 2, result.Reindexed)
	assert.Equal(t, 2, embedder.calls)
	assert.Equal(t, int64(2), job.GetMetrics().POIsReindexed)
}

func TestRefreshJob_MetricsSnapshot(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{Targets: []worker.RefreshTarget{{City: "北京"}}, Concurrency: 1, Timeout: time.Second},
		Logger: testLogger(),
	})

	job.Run(context.Background())

	snapshot := job.MetricsSnapshot()
	assert.Equal(t, int64(1), snapshot["total_refreshes"])
	assert.Contains(t, snapshot, "weather_refreshes")
	assert.Contains(t, snapshot, "pois_reindexed")
}
