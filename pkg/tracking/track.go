package tracking

import (
	"slices"

	"github.com/unklstewy/routewatch/pkg/route"
)

const (
	// DefaultTrackCapacity is the number of positions kept for loop detection
	DefaultTrackCapacity = 120

	// DefaultStuckThreshold is the number of identical reports tolerated
	// before an aircraft is considered stuck
	DefaultStuckThreshold = 10
)

// AircraftTrack is a bounded history of observed positions.
//
// A position equal to the previous one is not stored; it increments a
// repeat counter instead. The aircraft is stuck once the counter exceeds
// the threshold.
type AircraftTrack struct {
	points    []route.Waypoint
	capacity  int
	threshold int
	repeats   int
}

// NewAircraftTrack creates an empty track. Non-positive arguments select
// the defaults.
func NewAircraftTrack(capacity, stuckThreshold int) *AircraftTrack {
	if capacity <= 0 {
		capacity = DefaultTrackCapacity
	}
	if stuckThreshold <= 0 {
		stuckThreshold = DefaultStuckThreshold
	}
	return &AircraftTrack{
		points:    make([]route.Waypoint, 0, capacity+1),
		capacity:  capacity,
		threshold: stuckThreshold,
	}
}

// Observe records a position report and returns whether the aircraft is
// stuck.
func (t *AircraftTrack) Observe(lat, lon float64) bool {
	if n := len(t.points); n > 0 {
		last := t.points[n-1]
		if last.Lat == lat && last.Lon == lon {
			t.repeats++
			return t.Stuck()
		}
	}

	t.repeats = 0
	t.points = append(t.points, route.Unknown(lat, lon))
	if len(t.points) > t.capacity {
		t.points = slices.Delete(t.points, 0, len(t.points)-t.capacity)
	}
	return false
}

// Stuck reports whether the last position has repeated too often.
func (t *AircraftTrack) Stuck() bool {
	return t.repeats > t.threshold
}

// Len returns the number of stored positions.
func (t *AircraftTrack) Len() int {
	return len(t.points)
}

// Points returns a copy of the stored positions, oldest first.
func (t *AircraftTrack) Points() []route.Waypoint {
	return slices.Clone(t.points)
}
