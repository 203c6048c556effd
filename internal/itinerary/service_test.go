package itinerary

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripatlas/tripatlas/internal/geo"
	"github.com/tripatlas/tripatlas/internal/poi"
	"github.com/tripatlas/tripatlas/internal/weather"
)

type mockPlanner struct {
	plan       *TripPlan
	extracted  *TripRequest
	planErr    error
	extractErr error
	gotHints   []string
}

func (m *mockPlanner) GeneratePlan(_ context.Context, _ TripRequest, hints []string) (*TripPlan, error) {
	m.gotHints = hints
	if m.planErr != nil {
		return nil, m.planErr
	}
	cpy := *m.plan
	return &cpy, nil
}

func (m *mockPlanner) ExtractRequest(_ context.Context, _ string) (*TripRequest, error) {
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.extracted, nil
}

func (m *mockPlanner) Name() string { return "mock" }

type mockRetriever struct {
	hints       []string
	replacement *poi.POI
}

func (m *mockRetriever) Hints(_ context.Context, _ string, _ int) []string {
	return m.hints
}

func (m *mockRetriever) SuggestReplacement(_ context.Context, _, _ string) (*poi.POI, error) {
	if m.replacement == nil {
		return nil, poi.ErrPOINotFound
	}
	return m.replacement, nil
}

type mockForecasts struct {
	forecast weather.Forecast
	err      error
	gotDays  int
}

func (m *mockForecasts) Forecast(_ context.Context, _ string, _ time.Time, days int) (weather.Forecast, error) {
	m.gotDays = days
	if m.err != nil {
		return weather.Forecast{}, m.err
	}
	return m.forecast, nil
}

func samplePlan() *TripPlan {
	return &TripPlan{
		Destination:  "Beijing",
		DurationDays: 2,
		StartDate:    "2026-09-01",
		EndDate:      "2026-09-02",
		DailyPlans: []DayPlan{
			{
				Date: "2026-09-01",
				Activities: []Activity{
					{Name: "Palace Museum", Type: ActivitySightseeing, Location: "4 Jingshan Front St", StartTime: "09:00", EndTime: "12:00"},
					{Name: "Night Market", Type: ActivityDining, Location: "Wangfujing", StartTime: "20:00", EndTime: "22:00"},
				},
			},
			{Date: "2026-09-02"},
		},
	}
}

func newPipeline(planner *mockPlanner, g *mockGeo, pois *mockRetriever, forecasts *mockForecasts) *Service {
	var annotator *Annotator
	if g != nil {
		annotator = NewAnnotator(g, zerolog.Nop())
	}
	var retriever POIRetriever
	if pois != nil {
		retriever = pois
	}
	var fc ForecastService
	if forecasts != nil {
		fc = forecasts
	}
	return NewService(planner, annotator, retriever, fc, zerolog.Nop())
}

func TestGeneratePlan_FullPipeline(t *testing.T) {
	planner := &mockPlanner{plan: samplePlan()}
	g := &mockGeo{
		coords:   map[string]geo.Coordinate{},
		hoursRaw: map[string]string{"Night Market": "10:00-18:00"},
	}
	pois := &mockRetriever{
		hints:       []string{"Palace Museum (museum), Dongcheng"},
		replacement: &poi.POI{ID: "poi-2", Name: "Sanlitun"},
	}
	forecasts := &mockForecasts{forecast: weather.Forecast{
		City:   weather.City{Name: "Beijing"},
		Source: weather.SourceProvider,
	}}

	svc := newPipeline(planner, g, pois, forecasts)

	result, err := svc.GeneratePlan(context.Background(), TripRequest{
		Destination:  "Beijing",
		DurationDays: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, pois.hints, planner.gotHints)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, "closed", result.Violations[0].Type)
	assert.Equal(t, "Night Market", result.Violations[0].Activity)

	assert.True(t, result.Repaired)
	assert.Equal(t, "Sanlitun", result.Plan.DailyPlans[0].Activities[1].ReplacedWith)

	require.NotNil(t, result.Weather)
	assert.Equal(t, weather.SourceProvider, result.Weather.Source)
	assert.Equal(t, 2, forecasts.gotDays)
}

func TestGeneratePlan_PlannerFailure(t *testing.T) {
	planner := &mockPlanner{planErr: ErrPlannerUnavailable}
	svc := newPipeline(planner, nil, nil, nil)

	_, err := svc.GeneratePlan(context.Background(), TripRequest{Destination: "Beijing", DurationDays: 2})
	assert.ErrorIs(t, err, ErrPlannerUnavailable)
}

func TestGeneratePlan_NoViolations(t *testing.T) {
	planner := &mockPlanner{plan: samplePlan()}
	g := &mockGeo{coords: map[string]geo.Coordinate{}, hoursRaw: map[string]string{}}

	svc := newPipeline(planner, g, nil, nil)

	result, err := svc.GeneratePlan(context.Background(), TripRequest{Destination: "Beijing", DurationDays: 2})
	require.NoError(t, err)

	assert.Empty(t, result.Violations)
	assert.False(t, result.Repaired)
	assert.Nil(t, result.Weather)
}

func TestGeneratePlan_WeatherFailureKeepsPlan(t *testing.T) {
	planner := &mockPlanner{plan: samplePlan()}
	forecasts := &mockForecasts{err: weather.ErrProviderUnavailable}

	svc := newPipeline(planner, nil, nil, forecasts)

	result, err := svc.GeneratePlan(context.Background(), TripRequest{Destination: "Beijing", DurationDays: 2})
	require.NoError(t, err)
	assert.Nil(t, result.Weather)
	assert.NotNil(t, result.Plan)
}

func TestGeneratePlan_NormalizesMissingDuration(t *testing.T) {
	plan := samplePlan()
	plan.DurationDays = 0
	planner := &mockPlanner{plan: plan}

	svc := newPipeline(planner, nil, nil, nil)

	result, err := svc.GeneratePlan(context.Background(), TripRequest{Destination: "Beijing", DurationDays: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Plan.DurationDays)
}

func TestGenerateFromText(t *testing.T) {
	planner := &mockPlanner{
		plan:      samplePlan(),
		extracted: &TripRequest{Destination: "Beijing", DurationDays: 2},
	}

	svc := newPipeline(planner, nil, nil, nil)

	result, err := svc.GenerateFromText(context.Background(), FreeTextRequest{Text: "weekend in Beijing"})
	require.NoError(t, err)
	assert.Equal(t, "Beijing", result.Plan.Destination)
}

func TestGenerateFromText_ExtractionFailure(t *testing.T) {
	planner := &mockPlanner{extractErr: ErrInvalidPlan}
	svc := newPipeline(planner, nil, nil, nil)

	_, err := svc.GenerateFromText(context.Background(), FreeTextRequest{Text: "???"})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		start, end string
		want       int
	}{
		{"2026-09-01", "2026-09-02", 2},
		{"2026-09-01", "2026-09-01", 1},
		{"2026-09-02", "2026-09-01", 0},
		{"not-a-date", "2026-09-01", 0},
		{"2026-09-01", "", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysBetween(tt.start, tt.end), "%s..%s", tt.start, tt.end)
	}
}

func TestTripRequest_StartTime(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	withDate := TripRequest{StartDate: "2026-09-01"}
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), withDate.StartTime(now))

	withoutDate := TripRequest{}
	assert.Equal(t, now.AddDate(0, 0, 1), withoutDate.StartTime(now))
}
