package itinerary

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripatlas/tripatlas/internal/geo"
)

type mockGeo struct {
	coords    map[string]geo.Coordinate
	hoursRaw  map[string]string
	distance  geo.DriveEstimate
	geoErr    error
	distCalls int
}

func (m *mockGeo) Geocode(_ context.Context, address, _ string) (geo.Coordinate, error) {
	if m.geoErr != nil {
		return geo.Coordinate{}, m.geoErr
	}
	c, ok := m.coords[address]
	if !ok {
		return geo.Coordinate{}, geo.ErrNotFound
	}
	return c, nil
}

func (m *mockGeo) DrivingDistance(_ context.Context, _, _ geo.Coordinate) (geo.DriveEstimate, error) {
	m.distCalls++
	return m.distance, nil
}

func (m *mockGeo) POIOpenHours(_ context.Context, keyword, _ string) (string, bool) {
	raw, ok := m.hoursRaw[keyword]
	return raw, ok
}

func twoActivityPlan() *TripPlan {
	return &TripPlan{
		Destination:  "Beijing",
		DurationDays: 1,
		DailyPlans: []DayPlan{
			{
				Date: "2026-09-01",
				Activities: []Activity{
					{Name: "Palace Museum", Location: "4 Jingshan Front St", StartTime: "09:00", EndTime: "12:00"},
					{Name: "Temple of Heaven", Location: "1 Tiantan E Rd", StartTime: "14:00", EndTime: "16:00"},
				},
			},
		},
	}
}

func TestAnnotate_DistanceBetweenConsecutiveActivities(t *testing.T) {
	g := &mockGeo{
		coords: map[string]geo.Coordinate{
			"4 Jingshan Front St": {Lng: 116.397, Lat: 39.918},
			"1 Tiantan E Rd":      {Lng: 116.410, Lat: 39.882},
		},
		distance: geo.DriveEstimate{DistanceMeters: 5230, DurationSeconds: 900},
	}
	annotator := NewAnnotator(g, zerolog.Nop())

	plan := twoActivityPlan()
	annotator.Annotate(context.Background(), plan)

	first := plan.DailyPlans[0].Activities[0]
	second := plan.DailyPlans[0].Activities[1]

	assert.Nil(t, first.DistanceKMFromPrev)
	require.NotNil(t, second.DistanceKMFromPrev)
	assert.InDelta(t, 5.23, *second.DistanceKMFromPrev, 0.001)
	require.NotNil(t, second.DriveTimeMinFromPrev)
	assert.Equal(t, 15, *second.DriveTimeMinFromPrev)
}

func TestAnnotate_GeocodeFailureSkipsDistance(t *testing.T) {
	g := &mockGeo{geoErr: errors.New("provider down")}
	annotator := NewAnnotator(g, zerolog.Nop())

	plan := twoActivityPlan()
	annotator.Annotate(context.Background(), plan)

	for _, act := range plan.DailyPlans[0].Activities {
		assert.Nil(t, act.DistanceKMFromPrev)
		assert.Nil(t, act.DriveTimeMinFromPrev)
	}
	assert.Zero(t, g.distCalls)
}

func TestAnnotate_OpenHoursVerdicts(t *testing.T) {
	g := &mockGeo{
		coords: map[string]geo.Coordinate{},
		hoursRaw: map[string]string{
			"Palace Museum":    "08:30-17:00",
			"Temple of Heaven": "06:00-13:00",
		},
	}
	annotator := NewAnnotator(g, zerolog.Nop())

	plan := twoActivityPlan()
	annotator.Annotate(context.Background(), plan)

	open := plan.DailyPlans[0].Activities[0]
	require.NotNil(t, open.OpenOK)
	assert.True(t, *open.OpenOK)
	assert.Equal(t, "08:30-17:00", open.OpenHours)
	assert.Empty(t, open.ClosedReason)

	closed := plan.DailyPlans[0].Activities[1]
	require.NotNil(t, closed.OpenOK)
	assert.False(t, *closed.OpenOK)
	assert.Contains(t, closed.ClosedReason, "06:00-13:00")
}

func TestAnnotate_UnknownHoursLeaveVerdictUnset(t *testing.T) {
	g := &mockGeo{
		coords:   map[string]geo.Coordinate{},
		hoursRaw: map[string]string{"Palace Museum": "24小时营业"},
	}
	annotator := NewAnnotator(g, zerolog.Nop())

	plan := twoActivityPlan()
	annotator.Annotate(context.Background(), plan)

	act := plan.DailyPlans[0].Activities[0]
	assert.Equal(t, "24小时营业", act.OpenHours)
	assert.Nil(t, act.OpenOK)
}

func TestAnnotate_Idempotent(t *testing.T) {
	g := &mockGeo{
		coords: map[string]geo.Coordinate{
			"4 Jingshan Front St": {Lng: 116.397, Lat: 39.918},
			"1 Tiantan E Rd":      {Lng: 116.410, Lat: 39.882},
		},
		distance: geo.DriveEstimate{DistanceMeters: 5230, DurationSeconds: 900},
	}
	annotator := NewAnnotator(g, zerolog.Nop())

	plan := twoActivityPlan()
	annotator.Annotate(context.Background(), plan)
	first := *plan.DailyPlans[0].Activities[1].DistanceKMFromPrev

	annotator.Annotate(context.Background(), plan)
	second := *plan.DailyPlans[0].Activities[1].DistanceKMFromPrev

	assert.Equal(t, first, second)
	assert.Equal(t, 2, g.distCalls)
}
