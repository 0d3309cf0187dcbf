package coordinates

import (
	"math"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusMeters is the mean Earth radius (IUGG) in meters
	EarthRadiusMeters = 6371008.8

	// MetersPerNauticalMile converts meters to nautical miles
	MetersPerNauticalMile = 1852.0
)

// Geographic represents a position on Earth's surface.
// Uses the WGS84 coordinate system (same as GPS).
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64 `json:"lat"`

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64 `json:"lon"`
}

// NormalizeBearing ensures a bearing is in the range [0, 360).
func NormalizeBearing(bearing float64) float64 {
	b := math.Mod(bearing, 360.0)
	if b < 0 {
		b += 360.0
	}
	return b
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another.
// Uses spherical trigonometry to calculate the bearing along a great circle.
// Returns bearing in degrees (0-360), where 0/360 = North, 90 = East, 180 = South, 270 = West.
func Bearing(from, to Geographic) float64 {
	lat1 := from.Latitude * DegreesToRadians
	lon1 := from.Longitude * DegreesToRadians
	lat2 := to.Latitude * DegreesToRadians
	lon2 := to.Longitude * DegreesToRadians

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return NormalizeBearing(math.Atan2(y, x) * RadiansToDegrees)
}

// DistanceMeters calculates the great-circle distance between two points.
// Uses the Haversine formula for accuracy over short and long distances.
func DistanceMeters(from, to Geographic) float64 {
	lat1Rad := from.Latitude * DegreesToRadians
	lon1Rad := from.Longitude * DegreesToRadians
	lat2Rad := to.Latitude * DegreesToRadians
	lon2Rad := to.Longitude * DegreesToRadians

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// DistanceNauticalMiles calculates the great-circle distance between two points
// in nautical miles.
func DistanceNauticalMiles(from, to Geographic) float64 {
	return DistanceMeters(from, to) / MetersPerNauticalMile
}

// Interpolate finds a point along the great circle from a to b.
// fraction=0 returns a, fraction=1 returns b.
//
// Uses spherical linear interpolation (slerp) formula.
func Interpolate(a, b Geographic, fraction float64) Geographic {
	lat1Rad := a.Latitude * DegreesToRadians
	lon1Rad := a.Longitude * DegreesToRadians
	lat2Rad := b.Latitude * DegreesToRadians
	lon2Rad := b.Longitude * DegreesToRadians

	// Angular distance, clamped so rounding can't push Acos out of range
	cosD := math.Sin(lat1Rad)*math.Sin(lat2Rad) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lon2Rad-lon1Rad)
	d := math.Acos(math.Max(-1, math.Min(1, cosD)))

	// Handle case where points are very close
	if d < 1e-10 {
		return a
	}

	ka := math.Sin((1-fraction)*d) / math.Sin(d)
	kb := math.Sin(fraction*d) / math.Sin(d)

	x := ka*math.Cos(lat1Rad)*math.Cos(lon1Rad) + kb*math.Cos(lat2Rad)*math.Cos(lon2Rad)
	y := ka*math.Cos(lat1Rad)*math.Sin(lon1Rad) + kb*math.Cos(lat2Rad)*math.Sin(lon2Rad)
	z := ka*math.Sin(lat1Rad) + kb*math.Sin(lat2Rad)

	return Geographic{
		Latitude:  math.Atan2(z, math.Sqrt(x*x+y*y)) * RadiansToDegrees,
		Longitude: math.Atan2(y, x) * RadiansToDegrees,
	}
}

// Midpoint returns the great-circle midpoint between a and b.
func Midpoint(a, b Geographic) Geographic {
	return Interpolate(a, b, 0.5)
}

// ClosestPointOnArc returns the point of the great-circle arc a→b nearest to p.
//
// p is projected onto the plane of the great circle through a and b. If the
// projection falls outside the arc, the nearer endpoint is returned instead.
// Degenerate arcs (a == b or antipodal endpoints) collapse to the nearer endpoint.
func ClosestPointOnArc(p, a, b Geographic) Geographic {
	va, vb, vp := toVector(a), toVector(b), toVector(p)

	n := va.cross(vb)
	if n.norm() < 1e-12 {
		return nearer(p, a, b)
	}
	n = n.scale(1 / n.norm())

	c := vp.sub(n.scale(vp.dot(n)))
	if c.norm() < 1e-12 {
		// p is a pole of the great circle; every point is equidistant
		return nearer(p, a, b)
	}
	c = c.scale(1 / c.norm())

	if va.cross(c).dot(n) >= 0 && c.cross(vb).dot(n) >= 0 {
		return c.toGeographic()
	}
	return nearer(p, a, b)
}

func nearer(p, a, b Geographic) Geographic {
	if DistanceMeters(p, b) < DistanceMeters(p, a) {
		return b
	}
	return a
}

// vector is a point on the unit sphere in Earth-centered coordinates.
type vector struct{ x, y, z float64 }

func toVector(g Geographic) vector {
	lat := g.Latitude * DegreesToRadians
	lon := g.Longitude * DegreesToRadians
	return vector{
		x: math.Cos(lat) * math.Cos(lon),
		y: math.Cos(lat) * math.Sin(lon),
		z: math.Sin(lat),
	}
}

func (v vector) toGeographic() Geographic {
	return Geographic{
		Latitude:  math.Atan2(v.z, math.Sqrt(v.x*v.x+v.y*v.y)) * RadiansToDegrees,
		Longitude: math.Atan2(v.y, v.x) * RadiansToDegrees,
	}
}

func (v vector) dot(o vector) float64 { return v.x*o.x + v.y*o.y + v.z*o.z }

func (v vector) cross(o vector) vector {
	return vector{
		x: v.y*o.z - v.z*o.y,
		y: v.z*o.x - v.x*o.z,
		z: v.x*o.y - v.y*o.x,
	}
}

func (v vector) sub(o vector) vector { return vector{v.x - o.x, v.y - o.y, v.z - o.z} }

func (v vector) scale(k float64) vector { return vector{v.x * k, v.y * k, v.z * k} }

func (v vector) norm() float64 { return math.Sqrt(v.dot(v)) }
