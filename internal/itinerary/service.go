package itinerary

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripatlas/tripatlas/internal/poi"
	"github.com/tripatlas/tripatlas/internal/weather"
)

// POIRetriever is the slice of the POI service the pipeline needs.
type POIRetriever interface {
	Hints(ctx context.Context, query string, limit int) []string
	SuggestReplacement(ctx context.Context, activityName, activityType string) (*poi.POI, error)
}

// ForecastService is the slice of the weather service the pipeline needs.
type ForecastService interface {
	Forecast(ctx context.Context, cityName string, startDate time.Time, days int) (weather.Forecast, error)
}

// hintLimit is how many retrieved POI snippets are handed to the planner.
const hintLimit = 5

// Service runs the planning pipeline: draft plan from the planner, POI
// retrieval for grounding, route and opening-hours annotation, violation
// collection with replacement suggestions, and a weather forecast for the
// trip dates.
type Service struct {
	planner   Planner
	annotator *Annotator
	pois      POIRetriever
	weather   ForecastService
	logger    zerolog.Logger

	now func() time.Time
}

// NewService creates the planning pipeline. pois and weather may be nil;
// the corresponding stages are then skipped.
func NewService(planner Planner, annotator *Annotator, pois POIRetriever, forecasts ForecastService, logger zerolog.Logger) *Service {
	return &Service{
		planner:   planner,
		annotator: annotator,
		pois:      pois,
		weather:   forecasts,
		logger:    logger,
		now:       time.Now,
	}
}

// GeneratePlan runs the full pipeline for a structured request.
func (s *Service) GeneratePlan(ctx context.Context, req TripRequest) (*PlanResult, error) {
	var hints []string
	if s.pois != nil {
		hints = s.pois.Hints(ctx, retrievalQuery(req), hintLimit)
	}

	plan, err := s.planner.GeneratePlan(ctx, req, hints)
	if err != nil {
		return nil, err
	}
	normalizePlan(plan, req)

	if s.annotator != nil {
		s.annotator.Annotate(ctx, plan)
	}

	violations := collectViolations(plan)
	repaired := s.repair(ctx, plan, violations)

	result := &PlanResult{
		Plan:       plan,
		Violations: violations,
		Repaired:   repaired,
	}

	if s.weather != nil {
		fc, err := s.weather.Forecast(ctx, plan.Destination, req.StartTime(s.now()), plan.DurationDays)
		if err != nil {
			s.logger.Warn().Err(err).Str("city", plan.Destination).Msg("weather stage failed, returning plan without forecast")
		} else {
			result.Weather = &fc
		}
	}

	return result, nil
}

// GenerateFromText extracts a structured request from free text and runs the
// same pipeline.
func (s *Service) GenerateFromText(ctx context.Context, req FreeTextRequest) (*PlanResult, error) {
	structured, err := s.planner.ExtractRequest(ctx, req.Text)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("destination", structured.Destination).
		Int("duration_days", structured.DurationDays).
		Msg("extracted trip request from free text")

	return s.GeneratePlan(ctx, *structured)
}

// repair suggests a replacement POI for each closed activity. It returns
// true when at least one replacement was found.
func (s *Service) repair(ctx context.Context, plan *TripPlan, violations []Violation) bool {
	if s.pois == nil || len(violations) == 0 {
		return false
	}

	repaired := false
	for di := range plan.DailyPlans {
		for ai := range plan.DailyPlans[di].Activities {
			act := &plan.DailyPlans[di].Activities[ai]
			if act.OpenOK == nil || *act.OpenOK {
				continue
			}

			alt, err := s.pois.SuggestReplacement(ctx, act.Name, string(act.Type))
			if err != nil {
				s.logger.Debug().Err(err).Str("activity", act.Name).Msg("no replacement found")
				continue
			}
			act.ReplacedWith = alt.Name
			repaired = true
		}
	}
	return repaired
}

// collectViolations lists activities whose scheduled window falls outside
// their known opening hours.
func collectViolations(plan *TripPlan) []Violation {
	violations := []Violation{}
	for _, day := range plan.DailyPlans {
		for _, act := range day.Activities {
			if act.OpenOK != nil && !*act.OpenOK {
				violations = append(violations, Violation{
					Type:     "closed",
					Date:     day.Date,
					Activity: act.Name,
				})
			}
		}
	}
	return violations
}

// normalizePlan fills derivable fields the planner sometimes omits.
func normalizePlan(plan *TripPlan, req TripRequest) {
	if plan.Destination == "" {
		plan.Destination = req.Destination
	}
	if plan.DurationDays == 0 {
		if days := DaysBetween(plan.StartDate, plan.EndDate); days > 0 {
			plan.DurationDays = days
		} else if len(plan.DailyPlans) > 0 {
			plan.DurationDays = len(plan.DailyPlans)
		} else {
			plan.DurationDays = req.DurationDays
		}
	}
}

// retrievalQuery builds the POI search query from the request.
func retrievalQuery(req TripRequest) string {
	parts := []string{req.Destination}
	if req.Theme != "" {
		parts = append(parts, req.Theme)
	}
	parts = append(parts, req.Interests...)
	return strings.Join(parts, " ")
}
