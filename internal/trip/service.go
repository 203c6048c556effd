package trip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tripatlas/tripatlas/internal/api/models"
	"github.com/tripatlas/tripatlas/internal/itinerary"
)

// Service errors.
var (
	ErrNotAuthorized = errors.New("not authorized to access this trip")
)

// Validation constants.
const (
	MaxTitleLength = 120
)

// Service provides saved-trip operations.
type Service struct {
	repo Repository
}

// NewService creates a new trip service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves saved trips for a user, newest first, paginated by cursor.
func (s *Service) List(ctx context.Context, userID string, limit int, cursor string) (*models.PagedTrips, error) {
	result, err := s.repo.List(ctx, userID, ListOptions{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, err
	}

	items := make([]models.SavedTripSummary, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, models.SavedTripSummary{
			ID:           t.ID,
			Title:        t.Title,
			Destination:  t.Plan.Destination,
			DurationDays: t.Plan.DurationDays,
			CreatedAt:    models.Timestamp(t.CreatedAt),
			UpdatedAt:    models.Timestamp(t.UpdatedAt),
		})
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedTrips{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a saved trip by ID for a user.
func (s *Service) Get(ctx context.Context, userID, tripID string) (*models.SavedTrip, error) {
	t, err := s.repo.GetByUserAndID(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	result := s.toAPITrip(t)
	return &result, nil
}

// Save persists a trip plan for a user.
func (s *Service) Save(ctx context.Context, userID string, input *models.TripCreateRequest) (*models.SavedTrip, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	t := &SavedTrip{
		ID:        "trp_" + uuid.New().String()[:22],
		UserID:    userID,
		Title:     input.Title,
		Plan:      input.Plan,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if t.Title == "" {
		t.Title = defaultTitle(&input.Plan)
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	result := s.toAPITrip(t)
	return &result, nil
}

// Rename updates the title of a saved trip.
func (s *Service) Rename(ctx context.Context, userID, tripID string, input *models.TripUpdateRequest) (*models.SavedTrip, error) {
	t, err := s.repo.GetByUserAndID(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if fieldErrors := s.validateTitle(*input.Title, false); len(fieldErrors) > 0 {
			return nil, &ValidationError{Errors: fieldErrors}
		}
		t.Title = *input.Title
	}
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	result := s.toAPITrip(t)
	return &result, nil
}

// Delete deletes a saved trip for a user.
func (s *Service) Delete(ctx context.Context, userID, tripID string) error {
	// Verify ownership
	if _, err := s.repo.GetByUserAndID(ctx, userID, tripID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, tripID)
}

// validateCreateInput validates the save trip input.
func (s *Service) validateCreateInput(input *models.TripCreateRequest) []models.FieldError {
	var errs []models.FieldError

	errs = append(errs, s.validateTitle(input.Title, true)...)

	if input.Plan.Destination == "" {
		errs = append(errs, models.FieldError{Field: "plan.destination", Message: "is required"})
	}
	if len(input.Plan.DailyPlans) == 0 {
		errs = append(errs, models.FieldError{Field: "plan.daily_plans", Message: "must not be empty"})
	}

	return errs
}

// validateTitle validates a trip title. An empty title is allowed on create
// (a default is derived from the plan) but not on rename.
func (s *Service) validateTitle(title string, allowEmpty bool) []models.FieldError {
	if title == "" {
		if allowEmpty {
			return nil
		}
		return []models.FieldError{{Field: "title", Message: "cannot be empty"}}
	}
	if len(title) > MaxTitleLength {
		return []models.FieldError{{Field: "title", Message: "must be at most 120 characters"}}
	}
	return nil
}

// toAPITrip converts a domain SavedTrip to an API SavedTrip.
func (s *Service) toAPITrip(t *SavedTrip) models.SavedTrip {
	return models.SavedTrip{
		ID:          t.ID,
		Title:       t.Title,
		Destination: t.Plan.Destination,
		Plan:        t.Plan,
		CreatedAt:   models.Timestamp(t.CreatedAt),
		UpdatedAt:   models.Timestamp(t.UpdatedAt),
	}
}

// defaultTitle derives a title from the plan when the caller did not set one.
func defaultTitle(plan *itinerary.TripPlan) string {
	return fmt.Sprintf("%s, %d days", plan.Destination, plan.DurationDays)
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
