package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripatlas/tripatlas/internal/api"
	"github.com/tripatlas/tripatlas/internal/api/models"
	"github.com/tripatlas/tripatlas/internal/auth"
	"github.com/tripatlas/tripatlas/internal/geo"
	"github.com/tripatlas/tripatlas/internal/itinerary"
	"github.com/tripatlas/tripatlas/internal/poi"
	"github.com/tripatlas/tripatlas/internal/provider/resilience"
	"github.com/tripatlas/tripatlas/internal/trip"
	"github.com/tripatlas/tripatlas/internal/weather"
)

// stubPlanner returns a fixed two-day plan for any request.
type stubPlanner struct{}

func (p *stubPlanner) GeneratePlan(_ context.Context, req itinerary.TripRequest, _ []string) (*itinerary.TripPlan, error) {
	return &itinerary.TripPlan{
		Destination:  req.Destination,
		DurationDays: req.DurationDays,
		DailyPlans: []itinerary.DayPlan{
			{
				Date:     "Day 1",
				DayTitle: "Arrival",
				Activities: []itinerary.Activity{
					{Name: "Palace Museum", Type: itinerary.ActivitySightseeing, StartTime: "09:00", EndTime: "12:00"},
				},
			},
		},
	}, nil
}

func (p *stubPlanner) ExtractRequest(_ context.Context, _ string) (*itinerary.TripRequest, error) {
	return &itinerary.TripRequest{Destination: "Beijing", DurationDays: 2}, nil
}

func (p *stubPlanner) Name() string { return "stub" }

// stubGeoProvider serves geocoding and hours from fixed data.
type stubGeoProvider struct{}

func (p *stubGeoProvider) Geocode(_ context.Context, _, _ string) (geo.Coordinate, error) {
	return geo.Coordinate{Lng: 116.4, Lat: 39.9}, nil
}

func (p *stubGeoProvider) DrivingDistance(_ context.Context, _, _ geo.Coordinate) (geo.DriveEstimate, error) {
	return geo.DriveEstimate{DistanceMeters: 5000, DurationSeconds: 600}, nil
}

func (p *stubGeoProvider) POIOpenHours(_ context.Context, _, _ string) (string, error) {
	return "08:30-17:00", nil
}

func (p *stubGeoProvider) Name() string { return "stub-geo" }

// stubWeatherProvider serves a fixed forecast.
type stubWeatherProvider struct{}

func (p *stubWeatherProvider) LookupCity(_ context.Context, name string) (weather.City, error) {
	return weather.City{ID: "101010100", Name: name}, nil
}

func (p *stubWeatherProvider) DailyForecast(_ context.Context, _ string, days int) ([]weather.DailyForecast, error) {
	daily := make([]weather.DailyForecast, days)
	for i := range daily {
		daily[i] = weather.DailyForecast{Date: "2026-04-01", TempMinC: 10, TempMaxC: 20, TextDay: "Sunny"}
	}
	return daily, nil
}

func (p *stubWeatherProvider) Name() string { return "stub-weather" }

// stubEmbedder maps any text to a fixed vector.
type stubEmbedder struct{}

func (e *stubEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	return []float64{1, 0, 0}, nil
}

func (e *stubEmbedder) Name() string { return "stub-embedder" }

// testJWTService creates a JWT service for generating test tokens.
func testJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.tripatlas.cn",
		Audience:   "tripatlas-api",
	})
}

// generateTestToken generates a valid test token for a user.
func generateTestToken(t *testing.T) string {
	t.Helper()
	token, _, err := testJWTService().GenerateAccessToken("usr_testuser123")
	require.NoError(t, err)
	return token
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.New(io.Discard)

	geoService := geo.NewService(geo.ServiceConfig{Provider: &stubGeoProvider{}, Logger: logger})
	weatherService := weather.NewService(&stubWeatherProvider{}, logger)
	poiService := poi.NewService(poi.NewInMemoryRepository(), &stubEmbedder{}, nil, logger)
	tripService := trip.NewService(trip.NewInMemoryRepository())
	annotator := itinerary.NewAnnotator(geoService, logger)
	itineraryService := itinerary.NewService(&stubPlanner{}, annotator, poiService, weatherService, logger)

	registry := resilience.NewRegistry()
	registry.Register("amap", resilience.NewClient(resilience.DefaultClientConfig("amap")))

	return api.NewRouter(api.RouterConfig{
		Version:          "test",
		BuildTime:        "2026-01-01T00:00:00Z",
		Logger:           logger,
		JWTService:       testJWTService(),
		ItineraryService: itineraryService,
		TripService:      tripService,
		WeatherService:   weatherService,
		POIService:       poiService,
		GeoService:       geoService,
		Registry:         registry,
	})
}

// addAuthHeader adds a valid Bearer token to the request.
func addAuthHeader(t *testing.T, req *http.Request) {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t))
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.NotEmpty(t, status.Providers)
	assert.Equal(t, "amap", status.Providers[0].Provider)
	assert.Equal(t, "closed", status.Providers[0].CircuitState)
}

func TestRouter_SystemStatus_RequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_GeneratePlan(t *testing.T) {
	router := newTestRouter(t)

	input := itinerary.TripRequest{Destination: "Beijing", DurationDays: 1}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPost, "/v1/plans:generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.PlanResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	require.NotNil(t, resp.Plan)
	assert.Equal(t, "Beijing", resp.Plan.Destination)
	require.NotNil(t, resp.Weather)
	assert.Empty(t, resp.SavedTripID)
}

func TestRouter_GeneratePlan_ValidationError(t *testing.T) {
	router := newTestRouter(t)

	// Missing destination, zero duration
	body, _ := json.Marshal(itinerary.TripRequest{})

	req := httptest.NewRequest(http.MethodPost, "/v1/plans:generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)

	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
	assert.NotEmpty(t, problem.Errors)
}

func TestRouter_GeneratePlan_SaveRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(models.GeneratePlanRequest{
		TripRequest: itinerary.TripRequest{Destination: "Beijing", DurationDays: 1},
		Save:        true,
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/plans:generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_GeneratePlan_SaveAndFetch(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(models.GeneratePlanRequest{
		TripRequest: itinerary.TripRequest{Destination: "Beijing", DurationDays: 1},
		Save:        true,
		Title:       "Spring break",
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/plans:generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SavedTripID)

	// The saved trip is retrievable
	fetch := httptest.NewRequest(http.MethodGet, "/v1/trips/"+resp.SavedTripID, http.NoBody)
	addAuthHeader(t, fetch)
	fw := httptest.NewRecorder()

	router.ServeHTTP(fw, fetch)

	assert.Equal(t, http.StatusOK, fw.Code)

	var saved models.SavedTrip
	require.NoError(t, json.Unmarshal(fw.Body.Bytes(), &saved))
	assert.Equal(t, "Spring break", saved.Title)
	assert.Equal(t, "Beijing", saved.Destination)
}

func TestRouter_GenerateFromText(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(itinerary.FreeTextRequest{Text: "weekend in Beijing with kids"})

	req := httptest.NewRequest(http.MethodPost, "/v1/plans:generate-from-text", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.PlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Plan)
	assert.Equal(t, "Beijing", resp.Plan.Destination)
}

func TestRouter_Trips_CRUD(t *testing.T) {
	router := newTestRouter(t)

	plan := itinerary.TripPlan{
		Destination:  "Chengdu",
		DurationDays: 2,
		DailyPlans:   []itinerary.DayPlan{{Date: "Day 1"}},
	}
	body, _ := json.Marshal(models.TripCreateRequest{Title: "Pandas", Plan: plan})

	create := httptest.NewRequest(http.MethodPost, "/v1/trips", bytes.NewReader(body))
	create.Header.Set("Content-Type", "application/json")
	addAuthHeader(t, create)
	cw := httptest.NewRecorder()

	router.ServeHTTP(cw, create)

	require.Equal(t, http.StatusCreated, cw.Code)
	assert.NotEmpty(t, cw.Header().Get("Location"))

	var created models.SavedTrip
	require.NoError(t, json.Unmarshal(cw.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	// List
	list := httptest.NewRequest(http.MethodGet, "/v1/trips", http.NoBody)
	addAuthHeader(t, list)
	lw := httptest.NewRecorder()

	router.ServeHTTP(lw, list)

	require.Equal(t, http.StatusOK, lw.Code)

	var page models.PagedTrips
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Pandas", page.Items[0].Title)

	// Rename
	newTitle := "Panda trip"
	patchBody, _ := json.Marshal(models.TripUpdateRequest{Title: &newTitle})
	patch := httptest.NewRequest(http.MethodPatch, "/v1/trips/"+created.ID, bytes.NewReader(patchBody))
	patch.Header.Set("Content-Type", "application/json")
	addAuthHeader(t, patch)
	pw := httptest.NewRecorder()

	router.ServeHTTP(pw, patch)

	require.Equal(t, http.StatusOK, pw.Code)

	var renamed models.SavedTrip
	require.NoError(t, json.Unmarshal(pw.Body.Bytes(), &renamed))
	assert.Equal(t, "Panda trip", renamed.Title)

	// Delete
	del := httptest.NewRequest(http.MethodDelete, "/v1/trips/"+created.ID, http.NoBody)
	addAuthHeader(t, del)
	dw := httptest.NewRecorder()

	router.ServeHTTP(dw, del)

	assert.Equal(t, http.StatusNoContent, dw.Code)

	// Gone
	get := httptest.NewRequest(http.MethodGet, "/v1/trips/"+created.ID, http.NoBody)
	addAuthHeader(t, get)
	gw := httptest.NewRecorder()

	router.ServeHTTP(gw, get)

	assert.Equal(t, http.StatusNotFound, gw.Code)
}

func TestRouter_Trips_RequireAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/trips", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_WeatherForecast(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/weather/Beijing?days=2", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var forecast weather.Forecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forecast))
	assert.Equal(t, "Beijing", forecast.City.Name)
	assert.Len(t, forecast.Daily, 2)
	assert.Equal(t, weather.SourceProvider, forecast.Source)
}

func TestRouter_WeatherForecast_InvalidDays(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/weather/Beijing?days=99", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_POISearch(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pois:search?q=museum", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.POISearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "museum", resp.Query)
	assert.NotNil(t, resp.Items)
}

func TestRouter_POISearch_MissingQuery(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pois:search", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_HoursStatus(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(models.HoursStatusRequest{
		StartTime: "09:00",
		EndTime:   "11:00",
		OpenHours: "08:30-17:00",
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/hours:status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.HoursStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "open", resp.Status)
	assert.Equal(t, "complete", resp.Completeness)
}

func TestRouter_HoursStatus_BadWindow(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(models.HoursStatusRequest{
		StartTime: "nine",
		EndTime:   "11:00",
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/hours:status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_GeoDiagnose(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/geo:diagnose", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var diagnosis geo.Diagnosis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &diagnosis))
	assert.Equal(t, geo.DiagnosisAvailable, diagnosis.Status)
}

func TestRouter_AdminCacheInvalidate(t *testing.T) {
	router := newTestRouter(t)

	// Warm the weather cache first
	warm := httptest.NewRequest(http.MethodGet, "/v1/weather/Beijing", http.NoBody)
	router.ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/caches:invalidate", http.NoBody)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.CacheInvalidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.WeatherEntries)
}

func TestRouter_AdminIndexPOI(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(poi.POI{ID: "poi-1", Name: "Palace Museum", Type: "attraction"})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/pois", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.POIIndexResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Indexed)

	// The indexed POI is now searchable
	search := httptest.NewRequest(http.MethodGet, "/v1/pois:search?q=palace", http.NoBody)
	sw := httptest.NewRecorder()

	router.ServeHTTP(sw, search)

	require.Equal(t, http.StatusOK, sw.Code)

	var results models.POISearchResponse
	require.NoError(t, json.Unmarshal(sw.Body.Bytes(), &results))
	require.Len(t, results.Items, 1)
	assert.Equal(t, "Palace Museum", results.Items[0].POI.Name)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
