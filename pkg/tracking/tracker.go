// Package tracking matches live aircraft positions against a resolved
// route and derives progress, deviation, anomaly and arrival statistics.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/unklstewy/routewatch/internal/logging"
	"github.com/unklstewy/routewatch/pkg/coordinates"
	"github.com/unklstewy/routewatch/pkg/route"
	"github.com/unklstewy/routewatch/pkg/telemetry"
)

var (
	// ErrNoFlightPlan is returned when the pilot has not filed a plan.
	ErrNoFlightPlan = errors.New("pilot has no flight plan")

	// ErrRouteTooShort is returned for routes of fewer than two tokens.
	ErrRouteTooShort = errors.New("route is too short")

	// ErrSegmentNotFound is returned when the resolved route has fewer
	// than two waypoints.
	ErrSegmentNotFound = errors.New("no route segment found")
)

// DefaultMinInterval is the minimum time between two computations.
const DefaultMinInterval = 15 * time.Second

// RouteStatistics is the externally visible result of one computation.
type RouteStatistics struct {
	LeftoverRoute []string        `json:"leftover_route"`
	NextWaypoint  string          `json:"next_waypoint"`
	PrevWaypoint  string          `json:"prev_waypoint"`
	DeviationNM   float64         `json:"route_deviation"`
	ProgressPct   float64         `json:"route_progress"`
	DistNextWpNM  float64         `json:"dist_next_wp"`
	InLoop        bool            `json:"in_loop"`
	Stuck         bool            `json:"stuck"`
	Pilot         telemetry.Pilot `json:"pilot"`
	ETA           time.Time       `json:"eta"`
}

// Config contains tracker parameters.
type Config struct {
	Callsign         string
	MinInterval      time.Duration
	TrackCapacity    int
	StuckThreshold   int
	Mach             float64
	LoopSnapshotPath string
}

// Tracker computes RouteStatistics for one callsign.
//
// A Tracker is owned by a single goroutine. Route resolution goes through
// the supplied resolver, normally a route.Bridge.
type Tracker struct {
	cfg      Config
	source   telemetry.Source
	resolver route.WaypointResolver
	eta      *ETACalculator
	track    *AircraftTrack
	logger   *slog.Logger

	waypoints   []route.Waypoint
	fingerprint route.Fingerprint
	resolved    bool

	last      RouteStatistics
	updatedAt time.Time
	lastFetch time.Time
	now       func() time.Time
}

// NewTracker creates a tracker.
func NewTracker(cfg Config, source telemetry.Source, resolver route.WaypointResolver, wx WeatherSource, logger *slog.Logger) *Tracker {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.LoopSnapshotPath == "" {
		cfg.LoopSnapshotPath = DefaultLoopSnapshotPath
	}

	return &Tracker{
		cfg:      cfg,
		source:   source,
		resolver: resolver,
		eta:      NewETACalculator(wx, cfg.Mach),
		track:    NewAircraftTrack(cfg.TrackCapacity, cfg.StuckThreshold),
		logger:   logging.OrDefault(logger).With(slog.String("callsign", cfg.Callsign)),
		now:      time.Now,
	}
}

// Last returns the most recent successful statistics.
func (t *Tracker) Last() RouteStatistics {
	return t.last
}

// UpdatedAt returns when Last was computed, or the zero time.
func (t *Tracker) UpdatedAt() time.Time {
	return t.updatedAt
}

// Waypoints returns the current resolved route.
func (t *Tracker) Waypoints() []route.Waypoint {
	return t.waypoints
}

// Statistics returns fresh statistics at most once per MinInterval and the
// previous result in between. On error the previous result is kept.
func (t *Tracker) Statistics(ctx context.Context) (RouteStatistics, error) {
	if !t.lastFetch.IsZero() && t.now().Sub(t.lastFetch) < t.cfg.MinInterval {
		return t.last, nil
	}

	stats, err := t.compute(ctx)
	if err != nil {
		return RouteStatistics{}, err
	}
	t.last = stats
	t.updatedAt = t.now()
	return stats, nil
}

func (t *Tracker) compute(ctx context.Context) (RouteStatistics, error) {
	pilot, err := t.source.Pilot(ctx, t.cfg.Callsign)
	if err != nil {
		return RouteStatistics{}, err
	}
	t.lastFetch = t.now()

	stuck := t.track.Observe(pilot.Latitude, pilot.Longitude)

	if pilot.FlightPlan == nil {
		return RouteStatistics{}, ErrNoFlightPlan
	}
	tokens := route.Tokenize(pilot.FlightPlan.Route)
	if len(tokens) < 2 {
		return RouteStatistics{}, fmt.Errorf("%w: %d tokens", ErrRouteTooShort, len(tokens))
	}

	if err := t.refreshRoute(ctx, tokens, pilot.FlightPlan); err != nil {
		return RouteStatistics{}, err
	}

	inLoop := HasLoop(t.track.Points())
	if inLoop {
		t.logger.Warn("track crosses itself", slog.String("path", t.cfg.LoopSnapshotPath))
		if err := WriteLoopSnapshot(t.cfg.LoopSnapshotPath, t.track.Points()); err != nil {
			return RouteStatistics{}, err
		}
	}

	pos := coordinates.Geographic{Latitude: pilot.Latitude, Longitude: pilot.Longitude}
	seg, ok := ClosestSegment(t.waypoints, pos)
	if !ok {
		return RouteStatistics{}, fmt.Errorf("%w: %d waypoints", ErrSegmentNotFound, len(t.waypoints))
	}

	total := RouteLengthNM(t.waypoints)
	done := RouteLengthNM(t.waypoints[:seg.Index+1]) + coordinates.DistanceNauticalMiles(seg.Prev.Position(), pos)
	var progress float64
	if total > 0 {
		progress = done / total * 100
	}

	// Waypoints strictly after the matched segment.
	ahead := t.waypoints[seg.Index+2:]
	leftover := route.IDs(ahead)

	etaRoute := append([]route.Waypoint{route.Unknown(pilot.Latitude, pilot.Longitude)}, ahead...)
	flightTime, err := t.eta.Duration(ctx, etaRoute)
	if err != nil {
		return RouteStatistics{}, fmt.Errorf("estimate arrival: %w", err)
	}

	return RouteStatistics{
		LeftoverRoute: leftover,
		NextWaypoint:  seg.Next.ID,
		PrevWaypoint:  seg.Prev.ID,
		DeviationNM:   seg.DeviationMeters / coordinates.MetersPerNauticalMile,
		ProgressPct:   progress,
		DistNextWpNM:  coordinates.DistanceNauticalMiles(pos, seg.Next.Position()),
		InLoop:        inLoop,
		Stuck:         stuck,
		Pilot:         *pilot,
		ETA:           t.now().UTC().Add(flightTime).Local(),
	}, nil
}

// refreshRoute resolves tokens when they differ from the last resolved
// route. The fingerprint is committed only on success so a failure is
// retried on the next poll.
func (t *Tracker) refreshRoute(ctx context.Context, tokens []string, fp *telemetry.FlightPlan) error {
	sum := route.FingerprintOf(tokens)
	if t.resolved && sum == t.fingerprint {
		return nil
	}

	plan := route.FlightPlan{Departure: fp.Departure, Arrival: fp.Arrival, Route: fp.Route}
	wps, err := t.resolver.Resolve(ctx, tokens, plan)
	if err != nil {
		return fmt.Errorf("resolve route: %w", err)
	}

	t.waypoints = wps
	t.fingerprint = sum
	t.resolved = true

	t.logger.Debug("recomputed route waypoints",
		slog.Int("waypoints", len(wps)),
		slog.String("route", route.String(wps)))
	return nil
}
