package itinerary

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tripatlas/tripatlas/internal/geo"
	"github.com/tripatlas/tripatlas/pkg/hours"
)

// RouteGeo is the slice of the geo service the annotator needs.
type RouteGeo interface {
	Geocode(ctx context.Context, address, city string) (geo.Coordinate, error)
	DrivingDistance(ctx context.Context, origin, dest geo.Coordinate) (geo.DriveEstimate, error)
	POIOpenHours(ctx context.Context, keyword, city string) (string, bool)
}

// Annotator adds inter-activity driving distance and opening-hours verdicts
// to a trip plan. Annotation is best effort: a failing geo lookup leaves the
// fields unset rather than failing the plan.
type Annotator struct {
	geo    RouteGeo
	logger zerolog.Logger
}

// NewAnnotator creates an annotator backed by the given geo service.
func NewAnnotator(g RouteGeo, logger zerolog.Logger) *Annotator {
	return &Annotator{geo: g, logger: logger}
}

// Annotate fills the annotation fields of every activity in place. It is
// idempotent: all annotation fields are reset before the pass so a plan can
// be re-annotated after edits.
func (a *Annotator) Annotate(ctx context.Context, plan *TripPlan) {
	if plan == nil {
		return
	}
	city := plan.Destination

	for di := range plan.DailyPlans {
		day := &plan.DailyPlans[di]

		var prev *geo.Coordinate
		for ai := range day.Activities {
			act := &day.Activities[ai]
			a.reset(act)

			a.annotateHours(ctx, act, city)

			coord, err := a.geo.Geocode(ctx, act.Location, city)
			if err != nil {
				a.logger.Debug().Err(err).Str("location", act.Location).Msg("geocode failed, skipping distance annotation")
				prev = nil
				continue
			}

			if ai == 0 || prev == nil {
				c := coord
				prev = &c
				continue
			}

			if est, err := a.geo.DrivingDistance(ctx, *prev, coord); err == nil {
				km := est.DistanceKM()
				min := est.DurationMinutes()
				act.DistanceKMFromPrev = &km
				act.DriveTimeMinFromPrev = &min
			} else {
				a.logger.Debug().Err(err).Str("activity", act.Name).Msg("distance lookup failed")
			}

			c := coord
			prev = &c
		}
	}
}

// annotateHours looks up the activity's opening hours and records whether
// its scheduled window fits. An unknown verdict leaves OpenOK nil.
func (a *Annotator) annotateHours(ctx context.Context, act *Activity, city string) {
	raw, found := a.geo.POIOpenHours(ctx, act.Name, city)
	if !found || raw == "" {
		return
	}
	act.OpenHours = raw

	switch hours.Parse(raw).Covers(act.StartTime, act.EndTime) {
	case hours.VerdictOpen:
		open := true
		act.OpenOK = &open
	case hours.VerdictClosed:
		closed := false
		act.OpenOK = &closed
		act.ClosedReason = "scheduled outside business hours (" + raw + ")"
	}
}

func (a *Annotator) reset(act *Activity) {
	act.DistanceKMFromPrev = nil
	act.DriveTimeMinFromPrev = nil
	act.OpenHours = ""
	act.OpenOK = nil
	act.ClosedReason = ""
	act.ReplacedWith = ""
}
