// Package trip provides persistence for generated trip plans.
package trip

import (
	"errors"
	"time"

	"github.com/tripatlas/tripatlas/internal/itinerary"
)

// Repository errors.
var (
	ErrTripNotFound = errors.New("trip not found")
)

// SavedTrip represents a persisted trip plan.
type SavedTrip struct {
	ID        string
	UserID    string
	Title     string
	Plan      itinerary.TripPlan
	CreatedAt time.Time
	UpdatedAt time.Time
}
