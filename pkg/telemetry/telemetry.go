// Package telemetry provides live aircraft position reports.
//
// The Source interface abstracts the network feed so the tracker can be
// driven by the VATSIM data feed in production and by fixtures in tests.
package telemetry

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConnected is returned when the callsign is not in the feed.
	ErrNotConnected = errors.New("pilot not connected")

	// ErrFetchFailed wraps transport and decoding failures.
	ErrFetchFailed = errors.New("telemetry fetch failed")
)

// Pilot is one connected aircraft.
type Pilot struct {
	CID         int         `json:"cid"`
	Name        string      `json:"name"`
	Callsign    string      `json:"callsign"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Altitude    int         `json:"altitude"`    // feet
	Groundspeed int         `json:"groundspeed"` // knots
	Heading     int         `json:"heading"`     // degrees true
	Transponder string      `json:"transponder"`
	FlightPlan  *FlightPlan `json:"flight_plan"`
	LastUpdated time.Time   `json:"last_updated"`
}

// FlightPlan is the plan a pilot filed, if any.
type FlightPlan struct {
	FlightRules string `json:"flight_rules"`
	Aircraft    string `json:"aircraft_short"`
	Departure   string `json:"departure"`
	Arrival     string `json:"arrival"`
	Alternate   string `json:"alternate"`
	CruiseTAS   string `json:"cruise_tas"`
	Altitude    string `json:"altitude"`
	Route       string `json:"route"`
	Remarks     string `json:"remarks"`
}

// Source looks up a pilot by callsign.
type Source interface {
	// Pilot returns the pilot or an error wrapping ErrNotConnected.
	Pilot(ctx context.Context, callsign string) (*Pilot, error)
}
