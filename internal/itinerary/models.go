// Package itinerary defines the trip plan model and the planning pipeline
// that generates, enriches, and annotates itineraries.
package itinerary

import (
	"context"
	"errors"
	"time"

	"github.com/tripatlas/tripatlas/internal/weather"
)

// Itinerary errors.
var (
	ErrPlannerUnavailable = errors.New("planner unavailable")
	ErrInvalidPlan        = errors.New("planner returned an invalid plan")
)

// ActivityType classifies an itinerary activity.
type ActivityType string

const (
	ActivitySightseeing    ActivityType = "sightseeing"
	ActivityDining         ActivityType = "dining"
	ActivityShopping       ActivityType = "shopping"
	ActivityEntertainment  ActivityType = "entertainment"
	ActivityTransportation ActivityType = "transportation"
	ActivityAccommodation  ActivityType = "accommodation"
	ActivityCulture        ActivityType = "culture"
	ActivityNature         ActivityType = "nature"
)

// Valid reports whether the activity type is one of the known values.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivitySightseeing, ActivityDining, ActivityShopping,
		ActivityEntertainment, ActivityTransportation, ActivityAccommodation,
		ActivityCulture, ActivityNature:
		return true
	}
	return false
}

// Activity is a single scheduled activity within a day plan. The distance,
// drive time, and opening-hours fields are filled by the annotator, not the
// planner.
type Activity struct {
	Name            string       `json:"name"`
	Type            ActivityType `json:"type"`
	Location        string       `json:"location"`
	StartTime       string       `json:"start_time"` // HH:MM
	EndTime         string       `json:"end_time"`   // HH:MM
	DurationMinutes int          `json:"duration_minutes"`
	Description     string       `json:"description"`
	EstimatedCost   *int         `json:"estimated_cost,omitempty"`
	Tips            string       `json:"tips,omitempty"`

	DistanceKMFromPrev   *float64 `json:"distance_km_from_prev,omitempty"`
	DriveTimeMinFromPrev *int     `json:"drive_time_min_from_prev,omitempty"`

	OpenHours    string `json:"open_hours,omitempty"`
	OpenOK       *bool  `json:"open_ok,omitempty"`
	ClosedReason string `json:"closed_reason,omitempty"`
	ReplacedWith string `json:"replaced_with,omitempty"`
}

// DayPlan is one day of the itinerary.
type DayPlan struct {
	Date               string     `json:"date"` // YYYY-MM-DD
	DayTitle           string     `json:"day_title"`
	Activities         []Activity `json:"activities"`
	DailySummary       string     `json:"daily_summary"`
	EstimatedDailyCost int        `json:"estimated_daily_cost"`
}

// TripPlan is a complete generated itinerary.
type TripPlan struct {
	Destination        string    `json:"destination"`
	DurationDays       int       `json:"duration_days"`
	Theme              string    `json:"theme"`
	StartDate          string    `json:"start_date"` // YYYY-MM-DD
	EndDate            string    `json:"end_date"`   // YYYY-MM-DD
	DailyPlans         []DayPlan `json:"daily_plans"`
	TotalEstimatedCost int       `json:"total_estimated_cost"`
	GeneralTips        []string  `json:"general_tips"`
}

// TripRequest is a structured plan request.
type TripRequest struct {
	Destination          string   `json:"destination" validate:"required"`
	DurationDays         int      `json:"duration_days" validate:"required,min=1,max=30"`
	Theme                string   `json:"theme,omitempty"`
	Budget               *int     `json:"budget,omitempty" validate:"omitempty,min=0"`
	Interests            []string `json:"interests,omitempty"`
	StartDate            string   `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IncludeAccommodation bool     `json:"include_accommodation,omitempty"`
}

// FreeTextRequest is a plan request expressed in natural language.
type FreeTextRequest struct {
	Text string `json:"text" validate:"required,min=2"`
}

// Violation records an activity whose scheduled window falls outside its
// known opening hours.
type Violation struct {
	Type     string `json:"type"`
	Date     string `json:"date"`
	Activity string `json:"activity"`
}

// PlanResult bundles a generated plan with its supporting data.
type PlanResult struct {
	Plan       *TripPlan         `json:"plan"`
	Weather    *weather.Forecast `json:"weather,omitempty"`
	Violations []Violation       `json:"violations"`
	Repaired   bool              `json:"repaired"`
}

// Planner produces draft trip plans. Implemented by internal/planner/dashscope.
type Planner interface {
	// GeneratePlan produces a draft itinerary for the structured request.
	// hints carries retrieved POI snippets used to ground the plan.
	GeneratePlan(ctx context.Context, req TripRequest, hints []string) (*TripPlan, error)

	// ExtractRequest turns a free-text travel request into a structured one.
	ExtractRequest(ctx context.Context, text string) (*TripRequest, error)

	// Name returns the provider name for logging.
	Name() string
}

// StartTime returns the request start date, defaulting to tomorrow when the
// request does not set one.
func (r TripRequest) StartTime(now time.Time) time.Time {
	if r.StartDate != "" {
		if t, err := time.Parse("2006-01-02", r.StartDate); err == nil {
			return t
		}
	}
	return now.AddDate(0, 0, 1)
}

// DaysBetween returns the inclusive day count between two YYYY-MM-DD dates,
// or 0 when either date does not parse or the range is inverted.
func DaysBetween(start, end string) int {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return 0
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return 0
	}
	days := int(e.Sub(s).Hours()/24) + 1
	if days < 1 {
		return 0
	}
	return days
}
