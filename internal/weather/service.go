package weather

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCacheTTL is how long a fetched forecast stays fresh.
const DefaultCacheTTL = 30 * time.Minute

// Service provides weather forecasts with caching and a degraded fallback
// when the provider is unreachable.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedForecast

	now func() time.Time
}

type cachedForecast struct {
	forecast  Forecast
	expiresAt time.Time
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithCacheTTL overrides the forecast cache TTL.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// NewService creates a weather service backed by the given provider.
func NewService(provider Provider, logger zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		provider: provider,
		logger:   logger,
		cacheTTL: DefaultCacheTTL,
		cache:    make(map[string]*cachedForecast),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Forecast returns a daily forecast for the named city starting at startDate.
// Results are cached per city and tier. When the provider fails, a synthetic
// fallback forecast is returned with Source set to SourceFallback so callers
// can tell real data from placeholder data.
func (s *Service) Forecast(ctx context.Context, cityName string, startDate time.Time, days int) (Forecast, error) {
	if days < 1 {
		return Forecast{}, fmt.Errorf("days must be at least 1, got %d", days)
	}

	key := cacheKey(cityName, days)

	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()

	if ok && s.now().Before(entry.expiresAt) {
		fc := entry.forecast
		if len(fc.Daily) > days {
			fc.Daily = fc.Daily[:days]
		}
		return fc, nil
	}

	city, err := s.provider.LookupCity(ctx, cityName)
	if err != nil {
		s.logger.Warn().Err(err).Str("city", cityName).Msg("city lookup failed, using fallback forecast")
		return s.fallback(cityName, startDate, days), nil
	}

	daily, err := s.provider.DailyForecast(ctx, city.ID, days)
	if err != nil {
		s.logger.Warn().Err(err).Str("city", cityName).Msg("forecast fetch failed, using fallback forecast")
		return s.fallback(cityName, startDate, days), nil
	}

	fc := Forecast{
		City:      city,
		Daily:     daily,
		Source:    SourceProvider,
		UpdatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.cache[key] = &cachedForecast{forecast: fc, expiresAt: s.now().Add(s.cacheTTL)}
	s.mu.Unlock()

	if len(fc.Daily) > days {
		fc.Daily = fc.Daily[:days]
	}
	return fc, nil
}

// fallback builds a placeholder forecast so itinerary generation can proceed
// without weather data.
func (s *Service) fallback(cityName string, startDate time.Time, days int) Forecast {
	daily := make([]DailyForecast, 0, days)
	for i := 0; i < days; i++ {
		daily = append(daily, DailyForecast{
			Date:         startDate.AddDate(0, 0, i).Format("2006-01-02"),
			TempMinC:     15,
			TempMaxC:     22,
			TextDay:      "Unknown",
			TextNight:    "Unknown",
			TravelAdvice: "weather data unavailable, check a local forecast",
		})
	}
	return Forecast{
		City:      City{Name: cityName},
		Daily:     daily,
		Source:    SourceFallback,
		UpdatedAt: s.now().UTC(),
	}
}

// InvalidateCache clears all cached forecasts.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedForecast)
}

// CacheSize returns the number of cached forecasts.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func cacheKey(city string, days int) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(city)), days)
}
