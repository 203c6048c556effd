package models

import "github.com/tripatlas/tripatlas/internal/itinerary"

// SavedTrip represents a persisted trip plan.
type SavedTrip struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Destination string             `json:"destination"`
	Plan        itinerary.TripPlan `json:"plan"`
	CreatedAt   Timestamp          `json:"createdAt"`
	UpdatedAt   Timestamp          `json:"updatedAt"`
}

// SavedTripSummary is a SavedTrip without the full plan body, used in lists.
type SavedTripSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Destination  string    `json:"destination"`
	DurationDays int       `json:"durationDays"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
}

// PagedTrips is a paginated list of saved trips.
type PagedTrips struct {
	Items []SavedTripSummary `json:"items"`
	Meta  PagedResponseMeta  `json:"meta"`
}

// TripCreateRequest is the request body for saving a trip plan.
type TripCreateRequest struct {
	Title string             `json:"title"`
	Plan  itinerary.TripPlan `json:"plan"`
}

// TripUpdateRequest is the request body for renaming a saved trip.
type TripUpdateRequest struct {
	Title *string `json:"title,omitempty"`
}
