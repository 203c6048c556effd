package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tripatlas/tripatlas/internal/api/models"
	"github.com/tripatlas/tripatlas/internal/api/response"
	"github.com/tripatlas/tripatlas/internal/itinerary"
	"github.com/tripatlas/tripatlas/internal/trip"
)

// PlanHandler handles itinerary generation endpoints.
type PlanHandler struct {
	itineraries *itinerary.Service
	trips       *trip.Service
	validate    *validator.Validate
}

// NewPlanHandler creates a new PlanHandler. The trip service is optional;
// when nil, save requests are rejected.
func NewPlanHandler(itineraries *itinerary.Service, trips *trip.Service) *PlanHandler {
	return &PlanHandler{
		itineraries: itineraries,
		trips:       trips,
		validate:    validator.New(),
	}
}

// Generate handles POST /v1/plans:generate - structured plan generation.
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GeneratePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if fieldErrors := h.validateStruct(&req); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	result, err := h.itineraries.GeneratePlan(r.Context(), req.TripRequest)
	if err != nil {
		writePlanError(w, r, err)
		return
	}

	resp := models.PlanResponse{PlanResult: result}
	if req.Save {
		saved, err := h.saveResult(w, r, req.Title, result)
		if err != nil {
			return
		}
		resp.SavedTripID = saved
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// GenerateFromText handles POST /v1/plans:generate-from-text - plan
// generation from a free-text travel request.
func (h *PlanHandler) GenerateFromText(w http.ResponseWriter, r *http.Request) {
	var req itinerary.FreeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if fieldErrors := h.validateStruct(&req); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	result, err := h.itineraries.GenerateFromText(r.Context(), req)
	if err != nil {
		writePlanError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.PlanResponse{PlanResult: result})
}

// saveResult persists a generated plan for the authenticated caller. It
// writes the error response itself and returns a non-nil error when saving
// is not possible.
func (h *PlanHandler) saveResult(w http.ResponseWriter, r *http.Request, title string, result *itinerary.PlanResult) (string, error) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required to save a plan")
		return "", errors.New("unauthenticated")
	}
	if h.trips == nil {
		response.ServiceUnavailable(w, r, "trip storage is not available")
		return "", errors.New("no trip storage")
	}

	saved, err := h.trips.Save(r.Context(), userID, &models.TripCreateRequest{
		Title: title,
		Plan:  *result.Plan,
	})
	if err != nil {
		var validationErr *trip.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
			return "", err
		}
		response.InternalError(w, r, "failed to save trip")
		return "", err
	}
	return saved.ID, nil
}

func (h *PlanHandler) validateStruct(v interface{}) []models.FieldError {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []models.FieldError{{Field: "body", Message: err.Error()}}
	}

	fieldErrors := make([]models.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field:   fe.Field(),
			Message: "failed validation: " + fe.Tag(),
			Code:    fe.Tag(),
		})
	}
	return fieldErrors
}

func writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, itinerary.ErrPlannerUnavailable):
		response.ServiceUnavailable(w, r, "the planning model is temporarily unavailable")
	case errors.Is(err, itinerary.ErrInvalidPlan):
		response.ServiceUnavailable(w, r, "the planning model returned an unusable plan, try again")
	default:
		response.InternalError(w, r, "plan generation failed")
	}
}
