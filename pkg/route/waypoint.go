// Package route turns filed flight-plan route strings into ordered
// geographic waypoints using a navigation database.
package route

import (
	"strings"

	"github.com/unklstewy/routewatch/internal/db"
	"github.com/unklstewy/routewatch/pkg/coordinates"
)

// UnknownID names synthetic waypoints built from observed positions.
const UnknownID = "unknown"

// Waypoint is a named point on a resolved route.
type Waypoint struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Unknown returns a synthetic waypoint for a raw position.
func Unknown(lat, lon float64) Waypoint {
	return Waypoint{ID: UnknownID, Lat: lat, Lon: lon}
}

// Position returns the waypoint as a geographic coordinate.
func (w Waypoint) Position() coordinates.Geographic {
	return coordinates.Geographic{Latitude: w.Lat, Longitude: w.Lon}
}

func fromFix(f db.Fix) Waypoint {
	return Waypoint{ID: f.ID, Lat: f.Latitude, Lon: f.Longitude}
}

// FlightPlan is the part of a filed plan the resolver needs.
type FlightPlan struct {
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Route     string `json:"route"`
}

// IDs returns the identifiers of wps in order.
func IDs(wps []Waypoint) []string {
	out := make([]string, len(wps))
	for i, w := range wps {
		out[i] = w.ID
	}
	return out
}

// String renders a route as "A -> B -> C".
func String(wps []Waypoint) string {
	return strings.Join(IDs(wps), " -> ")
}

// baseIdent strips any "/..." suffix (speed/level changes such as
// "DVR/N0450F350").
func baseIdent(tok string) string {
	base, _, _ := strings.Cut(tok, "/")
	return base
}

// dedupe keeps the first occurrence of each waypoint ID.
func dedupe(wps []Waypoint) []Waypoint {
	seen := make(map[string]struct{}, len(wps))
	out := make([]Waypoint, 0, len(wps))
	for _, w := range wps {
		if _, ok := seen[w.ID]; ok {
			continue
		}
		seen[w.ID] = struct{}{}
		out = append(out, w)
	}
	return out
}
