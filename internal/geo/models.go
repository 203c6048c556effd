// Package geo provides geocoding, driving-distance, and POI opening-hours
// lookups for itinerary annotation.
package geo

import (
	"context"
	"errors"
	"math"
)

// Geo errors.
var (
	ErrProviderUnavailable = errors.New("geo provider unavailable")
	ErrNotFound            = errors.New("location not found")
	ErrMissingAPIKey       = errors.New("geo provider API key not configured")
)

// Coordinate is a longitude/latitude pair. AMap uses lng,lat ordering on the
// wire, so longitude comes first here as well.
type Coordinate struct {
	Lng float64
	Lat float64
}

// IsZero reports whether the coordinate is the zero value.
func (c Coordinate) IsZero() bool {
	return c.Lng == 0 && c.Lat == 0
}

// DriveEstimate is a driving distance and duration between two points.
type DriveEstimate struct {
	DistanceMeters  int
	DurationSeconds int
}

// DistanceKM returns the distance rounded to two decimals in kilometers.
func (d DriveEstimate) DistanceKM() float64 {
	return math.Round(float64(d.DistanceMeters)/10) / 100
}

// DurationMinutes returns the duration rounded to whole minutes.
func (d DriveEstimate) DurationMinutes() int {
	return int(math.Round(float64(d.DurationSeconds) / 60))
}

// Provider defines the interface for geographic data providers.
type Provider interface {
	// Geocode resolves a textual address to a coordinate. The city hint
	// narrows ambiguous addresses.
	Geocode(ctx context.Context, address, city string) (Coordinate, error)

	// DrivingDistance returns the driving distance and duration between two
	// coordinates.
	DrivingDistance(ctx context.Context, origin, dest Coordinate) (DriveEstimate, error)

	// POIOpenHours fetches the raw business-hours string for a place matched
	// by keyword. Returns ErrNotFound when the place has no hours data.
	POIOpenHours(ctx context.Context, keyword, city string) (string, error)

	// Name returns the provider name for logging.
	Name() string
}
