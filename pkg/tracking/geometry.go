package tracking

import (
	"math"

	"github.com/unklstewy/routewatch/pkg/coordinates"
	"github.com/unklstewy/routewatch/pkg/route"
)

// Segment is the part of a route nearest to a position.
type Segment struct {
	// Index of the near waypoint; the far waypoint is Index+1
	Index int

	Prev route.Waypoint
	Next route.Waypoint

	// Closest is the projection of the position onto the segment
	Closest coordinates.Geographic

	// DeviationMeters is the great-circle distance from the position to Closest
	DeviationMeters float64
}

// ClosestSegment finds the route segment with the smallest perpendicular
// distance to pos. It needs at least two waypoints. Ties keep the earlier
// segment.
func ClosestSegment(wps []route.Waypoint, pos coordinates.Geographic) (Segment, bool) {
	if len(wps) < 2 {
		return Segment{}, false
	}

	best := Segment{DeviationMeters: math.Inf(1)}
	for i := 0; i < len(wps)-1; i++ {
		c := coordinates.ClosestPointOnArc(pos, wps[i].Position(), wps[i+1].Position())
		d := coordinates.DistanceMeters(pos, c)
		if math.IsNaN(d) {
			continue
		}
		if d < best.DeviationMeters {
			best = Segment{Index: i, Prev: wps[i], Next: wps[i+1], Closest: c, DeviationMeters: d}
		}
	}

	if math.IsInf(best.DeviationMeters, 1) {
		return Segment{}, false
	}
	return best, true
}

// RouteLengthNM sums the great-circle legs of wps.
func RouteLengthNM(wps []route.Waypoint) float64 {
	var total float64
	for i := 1; i < len(wps); i++ {
		total += coordinates.DistanceNauticalMiles(wps[i-1].Position(), wps[i].Position())
	}
	return total
}

// HasLoop reports whether the track crosses itself. Segments are compared
// pairwise as straight lines in longitude/latitude space; neighbouring
// segments, which always share a point, are skipped.
func HasLoop(track []route.Waypoint) bool {
	for i := 0; i+1 < len(track); i++ {
		for j := i + 2; j+1 < len(track); j++ {
			if segmentsIntersect(planar(track[i]), planar(track[i+1]), planar(track[j]), planar(track[j+1])) {
				return true
			}
		}
	}
	return false
}

type point struct{ x, y float64 }

func planar(w route.Waypoint) point {
	return point{x: w.Lon, y: w.Lat}
}

// orientation of c relative to the directed line a→b: >0 left, <0 right,
// 0 collinear.
func orientation(a, b, c point) float64 {
	return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
}

func onSegment(a, b, p point) bool {
	return math.Min(a.x, b.x) <= p.x && p.x <= math.Max(a.x, b.x) &&
		math.Min(a.y, b.y) <= p.y && p.y <= math.Max(a.y, b.y)
}

// segmentsIntersect includes touching and collinear overlap.
func segmentsIntersect(p1, p2, p3, p4 point) bool {
	d1 := orientation(p3, p4, p1)
	d2 := orientation(p3, p4, p2)
	d3 := orientation(p1, p2, p3)
	d4 := orientation(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(p3, p4, p1):
		return true
	case d2 == 0 && onSegment(p3, p4, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, p3):
		return true
	case d4 == 0 && onSegment(p1, p2, p4):
		return true
	}
	return false
}
