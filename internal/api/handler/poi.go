package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tripatlas/tripatlas/internal/api/models"
	"github.com/tripatlas/tripatlas/internal/api/response"
	"github.com/tripatlas/tripatlas/internal/poi"
)

const maxPOISearchLimit = 20

// POIHandler handles point-of-interest endpoints.
type POIHandler struct {
	pois *poi.Service
}

// NewPOIHandler creates a new POIHandler.
func NewPOIHandler(pois *poi.Service) *POIHandler {
	return &POIHandler{pois: pois}
}

// Search handles GET /v1/pois:search - semantic search over the catalog.
func (h *POIHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, r, "q is required", nil)
		return
	}

	limit := poi.DefaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPOISearchLimit {
			response.BadRequest(w, r, "limit must be between 1 and 20", nil)
			return
		}
		limit = parsed
	}

	results, err := h.pois.Search(r.Context(), query, limit)
	if err != nil {
		response.InternalError(w, r, "search failed")
		return
	}
	if results == nil {
		results = []poi.SearchResult{}
	}
	response.JSON(w, r, http.StatusOK, models.POISearchResponse{Query: query, Items: results})
}

// Index handles POST /v1/admin/pois - add or update a catalog entry and
// embed it for semantic search.
func (h *POIHandler) Index(w http.ResponseWriter, r *http.Request) {
	var p poi.POI
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	var fieldErrors []models.FieldError
	if p.ID == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "id", Message: "required", Code: "required"})
	}
	if p.Name == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "name", Message: "required", Code: "required"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	if err := h.pois.Index(r.Context(), &p); err != nil {
		response.ServiceUnavailable(w, r, "indexing failed, embedding provider unavailable")
		return
	}
	response.JSON(w, r, http.StatusOK, models.POIIndexResponse{ID: p.ID, Indexed: true})
}
