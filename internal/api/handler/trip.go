package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tripatlas/tripatlas/internal/api/models"
	"github.com/tripatlas/tripatlas/internal/api/response"
	"github.com/tripatlas/tripatlas/internal/trip"
)

const (
	defaultTripPageSize = 20
	maxTripPageSize     = 100
)

// TripHandler handles saved-trip endpoints.
type TripHandler struct {
	trips *trip.Service
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(trips *trip.Service) *TripHandler {
	return &TripHandler{trips: trips}
}

// List handles GET /v1/trips - list the caller's saved trips.
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	limit := defaultTripPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, r, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}
	if limit > maxTripPageSize {
		limit = maxTripPageSize
	}

	page, err := h.trips.List(r.Context(), userID, limit, r.URL.Query().Get("cursor"))
	if err != nil {
		response.InternalError(w, r, "failed to list trips")
		return
	}
	response.JSON(w, r, http.StatusOK, page)
}

// Get handles GET /v1/trips/{tripID} - fetch one saved trip with its plan.
func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	tripID := chi.URLParam(r, "tripID")

	saved, err := h.trips.Get(r.Context(), userID, tripID)
	if err != nil {
		if errors.Is(err, trip.ErrTripNotFound) {
			response.NotFound(w, r, "trip not found")
			return
		}
		response.InternalError(w, r, "failed to fetch trip")
		return
	}
	response.JSON(w, r, http.StatusOK, saved)
}

// Create handles POST /v1/trips - save a plan.
func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var req models.TripCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	saved, err := h.trips.Save(r.Context(), userID, &req)
	if err != nil {
		var validationErr *trip.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
			return
		}
		response.InternalError(w, r, "failed to save trip")
		return
	}
	response.Created(w, r, "/v1/trips/"+saved.ID, saved)
}

// Update handles PATCH /v1/trips/{tripID} - rename a saved trip.
func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	tripID := chi.URLParam(r, "tripID")

	var req models.TripUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	updated, err := h.trips.Rename(r.Context(), userID, tripID, &req)
	if err != nil {
		var validationErr *trip.ValidationError
		switch {
		case errors.Is(err, trip.ErrTripNotFound):
			response.NotFound(w, r, "trip not found")
		case errors.As(err, &validationErr):
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
		default:
			response.InternalError(w, r, "failed to update trip")
		}
		return
	}
	response.JSON(w, r, http.StatusOK, updated)
}

// Delete handles DELETE /v1/trips/{tripID} - delete a saved trip.
func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	tripID := chi.URLParam(r, "tripID")

	if err := h.trips.Delete(r.Context(), userID, tripID); err != nil {
		if errors.Is(err, trip.ErrTripNotFound) {
			response.NotFound(w, r, "trip not found")
			return
		}
		response.InternalError(w, r, "failed to delete trip")
		return
	}
	response.NoContent(w, r)
}
