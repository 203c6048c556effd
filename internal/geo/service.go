package geo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the geo service.
type ServiceConfig struct {
	// Provider is the geographic data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// HoursCacheTTL is how long to cache POI opening-hours lookups
	// (default: 6 hours). Hours data changes rarely.
	HoursCacheTTL time.Duration
}

// Service provides geographic lookups with caching. Geocoding results are
// cached without expiry (addresses do not move); opening-hours lookups use a
// TTL cache.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	hoursCacheTTL time.Duration

	mu           sync.RWMutex
	geocodeCache map[string]Coordinate
	hoursCache   map[string]*cachedHours
}

type cachedHours struct {
	raw       string
	found     bool
	expiresAt time.Time
}

// NewService creates a new geo service.
func NewService(cfg ServiceConfig) *Service {
	hoursCacheTTL := cfg.HoursCacheTTL
	if hoursCacheTTL == 0 {
		hoursCacheTTL = 6 * time.Hour
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		hoursCacheTTL: hoursCacheTTL,
		geocodeCache:  make(map[string]Coordinate),
		hoursCache:    make(map[string]*cachedHours),
	}
}

// Geocode resolves an address to a coordinate, caching successful results.
func (s *Service) Geocode(ctx context.Context, address, city string) (Coordinate, error) {
	key := cacheKey(address, city)

	s.mu.RLock()
	if coord, ok := s.geocodeCache[key]; ok {
		s.mu.RUnlock()
		return coord, nil
	}
	s.mu.RUnlock()

	coord, err := s.provider.Geocode(ctx, address, city)
	if err != nil {
		s.logger.Warn().
			Str("address", address).
			Str("city", city).
			Err(err).
			Msg("geocode failed")
		return Coordinate{}, err
	}

	s.mu.Lock()
	s.geocodeCache[key] = coord
	s.mu.Unlock()

	return coord, nil
}

// DrivingDistance returns the driving distance and duration between two
// coordinates. Distances are not cached: itinerary annotation asks for each
// leg once per plan.
func (s *Service) DrivingDistance(ctx context.Context, origin, dest Coordinate) (DriveEstimate, error) {
	return s.provider.DrivingDistance(ctx, origin, dest)
}

// POIOpenHours returns the raw business-hours string for a place. Both hits
// and confirmed misses (ErrNotFound) are cached so a place without hours data
// does not get re-queried on every annotation pass. When the provider fails
// for any other reason, an expired cache entry is served rather than dropped:
// stale hours beat no hours during an upstream outage.
func (s *Service) POIOpenHours(ctx context.Context, keyword, city string) (string, bool) {
	key := cacheKey(keyword, city)

	s.mu.RLock()
	cached, hasCached := s.hoursCache[key]
	if hasCached && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.raw, cached.found
	}
	s.mu.RUnlock()

	raw, err := s.provider.POIOpenHours(ctx, keyword, city)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn().
			Str("keyword", keyword).
			Err(err).
			Msg("opening hours lookup failed")
		if hasCached {
			return cached.raw, cached.found
		}
		return "", false
	}

	found := err == nil
	if !found {
		s.logger.Debug().
			Str("keyword", keyword).
			Msg("no opening hours for place")
	}

	s.mu.Lock()
	s.hoursCache[key] = &cachedHours{
		raw:       raw,
		found:     found,
		expiresAt: time.Now().Add(s.hoursCacheTTL),
	}
	s.mu.Unlock()

	return raw, found
}

// Diagnose runs a geocode/distance round trip against two well-known
// landmarks to verify connectivity and key validity.
func (s *Service) Diagnose(ctx context.Context) Diagnosis {
	start := time.Now()
	d := Diagnosis{Provider: s.provider.Name()}

	origin, err := s.provider.Geocode(ctx, "天安门广场", "北京")
	if err != nil {
		d.Status = DiagnosisError
		d.Message = "geocode failed: " + err.Error()
		d.ElapsedMS = time.Since(start).Milliseconds()
		return d
	}

	dest, err := s.provider.Geocode(ctx, "故宫博物院", "北京")
	if err != nil {
		d.Status = DiagnosisPartial
		d.Message = "second geocode failed: " + err.Error()
		d.ElapsedMS = time.Since(start).Milliseconds()
		return d
	}

	estimate, err := s.provider.DrivingDistance(ctx, origin, dest)
	d.ElapsedMS = time.Since(start).Milliseconds()
	if err != nil {
		d.Status = DiagnosisPartial
		d.Message = "geocoding works, distance query failed: " + err.Error()
		return d
	}

	d.Status = DiagnosisAvailable
	d.Message = "geocoding and distance queries succeeded"
	d.DistanceKM = estimate.DistanceKM()
	d.DriveTimeMin = estimate.DurationMinutes()
	return d
}

// DiagnosisStatus classifies a provider connectivity check.
type DiagnosisStatus string

const (
	DiagnosisAvailable DiagnosisStatus = "available"
	DiagnosisPartial   DiagnosisStatus = "partial"
	DiagnosisError     DiagnosisStatus = "error"
)

// Diagnosis is the result of a provider connectivity check.
type Diagnosis struct {
	Provider     string          `json:"provider"`
	Status       DiagnosisStatus `json:"status"`
	Message      string          `json:"message"`
	ElapsedMS    int64           `json:"elapsedMs"`
	DistanceKM   float64         `json:"distanceKm,omitempty"`
	DriveTimeMin int             `json:"driveTimeMin,omitempty"`
}

// CacheStats returns cache entry counts.
func (s *Service) CacheStats() (geocodeEntries, hoursEntries int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.geocodeCache), len(s.hoursCache)
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geocodeCache = make(map[string]Coordinate)
	s.hoursCache = make(map[string]*cachedHours)
}

func cacheKey(a, b string) string {
	return strings.ToLower(strings.TrimSpace(a)) + "|" + strings.ToLower(strings.TrimSpace(b))
}
