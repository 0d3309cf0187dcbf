package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/unklstewy/routewatch/internal/db"
	"github.com/unklstewy/routewatch/internal/logging"
	"github.com/unklstewy/routewatch/pkg/coordinates"
	"github.com/unklstewy/routewatch/pkg/nattrak"
)

// ErrResolution wraps every failure to resolve a route.
var ErrResolution = errors.New("route resolution failed")

// TrackSource supplies the published oceanic tracks.
type TrackSource interface {
	Tracks(ctx context.Context) ([]nattrak.Track, error)
}

// Resolver expands route tokens into waypoints against a nav database.
// It is not safe for concurrent use; run it behind a Bridge.
type Resolver struct {
	nav    db.NavData
	tracks TrackSource
	logger *slog.Logger
}

// NewResolver creates a resolver. tracks may be nil, in which case
// oceanic track tokens contribute nothing.
func NewResolver(nav db.NavData, tracks TrackSource, logger *slog.Logger) *Resolver {
	return &Resolver{nav: nav, tracks: tracks, logger: logging.OrDefault(logger)}
}

// Resolve turns tokens into an ordered, de-duplicated waypoint list.
//
// The first token is tried as a SID at the departure airport and the last
// as a STAR at the arrival airport. Every other token is a coordinate, an
// oceanic track, a named fix or an airway. The arrival airport is appended
// when the database knows it.
func (r *Resolver) Resolve(ctx context.Context, tokens []string, plan FlightPlan) ([]Waypoint, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty route", ErrResolution)
	}

	wps, err := r.resolve(ctx, tokens, plan)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}
	return wps, nil
}

func (r *Resolver) resolve(ctx context.Context, tokens []string, plan FlightPlan) ([]Waypoint, error) {
	var wps []Waypoint

	first := tokens[0]
	sid, err := r.procedure(ctx, db.SID, plan.Departure, first)
	if err != nil {
		return nil, err
	}
	if len(sid) > 0 {
		wps = append(wps, sid...)
	} else if wps, err = r.expand(ctx, wps, first, ""); err != nil {
		return nil, err
	}

	for i := 1; i < len(tokens)-1; i++ {
		if wps, err = r.expand(ctx, wps, tokens[i], tokens[i+1]); err != nil {
			return nil, err
		}
	}

	last := tokens[len(tokens)-1]
	star, err := r.procedure(ctx, db.STAR, plan.Arrival, last)
	if err != nil {
		return nil, err
	}
	if len(star) > 0 {
		wps = append(wps, star...)
	} else if wps, err = r.expand(ctx, wps, last, ""); err != nil {
		return nil, err
	}

	if plan.Arrival != "" {
		apt, err := r.nav.Airport(ctx, plan.Arrival)
		if err != nil {
			return nil, err
		}
		if apt != nil {
			wps = append(wps, fromFix(*apt))
		}
	}

	return dedupe(wps), nil
}

// procedure returns the legs of the procedure token names at airport,
// or nothing when no published procedure matches.
func (r *Resolver) procedure(ctx context.Context, kind db.ProcedureKind, airport, token string) ([]Waypoint, error) {
	if airport == "" {
		return nil, nil
	}

	candidates, err := r.nav.Procedures(ctx, kind, airport)
	if err != nil {
		return nil, err
	}
	proc, ok := SelectProcedure(token, candidates)
	if !ok {
		return nil, nil
	}

	legs, err := r.nav.ProcedureLegs(ctx, kind, airport, proc)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("procedure matched",
		slog.String("kind", kind.String()),
		slog.String("airport", airport),
		slog.String("token", token),
		slog.String("procedure", proc.Key()),
		slog.Int("legs", len(legs)))

	out := make([]Waypoint, len(legs))
	for i, l := range legs {
		out[i] = fromFix(l)
	}
	return out, nil
}

// expand appends whatever tok contributes to wps. next is the following
// token, used as the exit fix when tok is an airway.
func (r *Resolver) expand(ctx context.Context, wps []Waypoint, tok, next string) ([]Waypoint, error) {
	base := baseIdent(tok)

	if wp, ok := ParseCoordinate(base); ok {
		return append(wps, wp), nil
	}

	if len(base) == 4 && strings.HasPrefix(base, "NAT") {
		return r.expandOceanic(ctx, wps, base[3:])
	}

	fixes, err := r.nav.Fixes(ctx, base)
	if err != nil {
		return nil, err
	}
	if len(fixes) > 0 {
		return append(wps, nearest(fixes, wps)), nil
	}

	if len(wps) == 0 {
		return wps, nil
	}

	airway, err := r.nav.AirwayFixes(ctx, base)
	if err != nil {
		return nil, err
	}
	points := make([]Waypoint, len(airway))
	for i, f := range airway {
		points[i] = fromFix(f)
	}

	return append(wps, SliceAirway(points, wps[len(wps)-1].ID, baseIdent(next))...), nil
}

// expandOceanic appends the routeing of the active track named by letter.
// An unavailable track is logged and skipped.
func (r *Resolver) expandOceanic(ctx context.Context, wps []Waypoint, letter string) ([]Waypoint, error) {
	if r.tracks == nil {
		r.logger.Warn("no oceanic track source configured", slog.String("track", letter))
		return wps, nil
	}

	tracks, err := r.tracks.Tracks(ctx)
	if err != nil {
		r.logger.Warn("oceanic track fetch failed", slog.String("track", letter), slog.Any("err", err))
		return wps, nil
	}

	track := nattrak.FindActive(tracks, letter)
	if track == nil {
		r.logger.Warn("oceanic track not found or not active", slog.String("track", letter))
		return wps, nil
	}

	for _, e := range nattrak.ParseRouteing(track.LastRouteing) {
		if e.Coordinate {
			wps = append(wps, Waypoint{ID: e.Token, Lat: e.Latitude, Lon: e.Longitude})
			continue
		}

		fixes, err := r.nav.Fixes(ctx, e.Token)
		if err != nil {
			return nil, err
		}
		if len(fixes) == 0 {
			r.logger.Warn("oceanic track fix unknown", slog.String("track", letter), slog.String("fix", e.Token))
			continue
		}
		wps = append(wps, nearest(fixes, wps))
	}

	return wps, nil
}

// nearest picks the fix closest to the last accepted waypoint. With no
// waypoint yet, or on ties, the first fix wins.
func nearest(fixes []db.Fix, wps []Waypoint) Waypoint {
	if len(wps) == 0 {
		return fromFix(fixes[0])
	}

	prev := wps[len(wps)-1].Position()
	best := fixes[0]
	bestDist := coordinates.DistanceMeters(prev, fixPosition(best))
	for _, f := range fixes[1:] {
		if d := coordinates.DistanceMeters(prev, fixPosition(f)); d < bestDist {
			best, bestDist = f, d
		}
	}
	return fromFix(best)
}

func fixPosition(f db.Fix) coordinates.Geographic {
	return coordinates.Geographic{Latitude: f.Latitude, Longitude: f.Longitude}
}
