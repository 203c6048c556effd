package models

import "github.com/tripatlas/tripatlas/internal/itinerary"

// GeneratePlanRequest is the request body for structured plan generation.
// Save persists the resulting plan for the authenticated user.
type GeneratePlanRequest struct {
	itinerary.TripRequest

	Save  bool   `json:"save,omitempty"`
	Title string `json:"title,omitempty"`
}

// PlanResponse is the response body for plan generation. It carries the
// annotated plan, the forecast, and any opening-hours violations.
type PlanResponse struct {
	*itinerary.PlanResult

	// SavedTripID is set when the caller asked for the plan to be saved.
	SavedTripID string `json:"savedTripId,omitempty"`
}

// HoursStatusRequest asks for the display status of a place given its
// scheduled visit window and raw opening hours.
type HoursStatusRequest struct {
	StartTime     string `json:"start_time" validate:"required"`
	EndTime       string `json:"end_time" validate:"required"`
	OpenHours     string `json:"open_hours,omitempty"`
	BackendOpen   *bool  `json:"backend_open,omitempty"`
	ClosedReason  string `json:"closed_reason,omitempty"`
	PreferBackend bool   `json:"prefer_backend,omitempty"`
}

// HoursStatusResponse is the evaluated display status.
type HoursStatusResponse struct {
	Status       string   `json:"status"`
	DisplayText  string   `json:"display_text"`
	Completeness string   `json:"completeness"`
	Skipped      []string `json:"skipped,omitempty"`
}
