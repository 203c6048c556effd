package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tripatlas/tripatlas/internal/api/models"
	"github.com/tripatlas/tripatlas/internal/api/response"
	"github.com/tripatlas/tripatlas/pkg/hours"
)

// HoursHandler evaluates business-hours display status for a visit window.
type HoursHandler struct{}

// NewHoursHandler creates a new HoursHandler.
func NewHoursHandler() *HoursHandler {
	return &HoursHandler{}
}

// Status handles POST /v1/hours:status - classify a visit window against a
// place's raw opening-hours string and optional upstream open flag.
func (h *HoursHandler) Status(w http.ResponseWriter, r *http.Request) {
	var req models.HoursStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	var fieldErrors []models.FieldError
	if _, ok := hours.MinuteOfDay(req.StartTime); !ok {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "start_time", Message: "must be formatted as HH:MM", Code: "format",
		})
	}
	if _, ok := hours.MinuteOfDay(req.EndTime); !ok {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "end_time", Message: "must be formatted as HH:MM", Code: "format",
		})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	var opts []hours.StatusOption
	if req.PreferBackend {
		opts = append(opts, hours.PreferBackendFlag())
	}
	status := hours.Status(req.StartTime, req.EndTime, req.OpenHours, req.BackendOpen, req.ClosedReason, opts...)

	schedule := hours.Parse(req.OpenHours)
	response.JSON(w, r, http.StatusOK, models.HoursStatusResponse{
		Status:       status.Kind.String(),
		DisplayText:  status.DisplayText,
		Completeness: schedule.Completeness().String(),
		Skipped:      schedule.Skipped,
	})
}
