package tracking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/unklstewy/routewatch/pkg/coordinates"
	"github.com/unklstewy/routewatch/pkg/route"
	"github.com/unklstewy/routewatch/pkg/weather"
)

// DefaultMach is the assumed cruise Mach number.
const DefaultMach = 0.86

// speedOfSoundFactor converts sqrt(kelvin) to knots of sound speed.
const speedOfSoundFactor = 39.0

// ErrNoGroundspeed is returned when the wind stops the aircraft on a leg.
var ErrNoGroundspeed = errors.New("non-positive groundspeed")

// WeatherSource returns a wind/temperature sample near a coordinate.
type WeatherSource interface {
	Get(ctx context.Context, lat, lon float64) (weather.Sample, error)
}

// ETACalculator estimates flight time along a route using upper winds
// sampled at the midpoint of every leg.
type ETACalculator struct {
	weather WeatherSource
	mach    float64
}

// NewETACalculator creates a calculator. A non-positive mach selects
// DefaultMach.
func NewETACalculator(wx WeatherSource, mach float64) *ETACalculator {
	if mach <= 0 {
		mach = DefaultMach
	}
	return &ETACalculator{weather: wx, mach: mach}
}

// TrueAirspeed returns the TAS in knots at the calculator's Mach number.
func (c *ETACalculator) TrueAirspeed(temperatureK float64) float64 {
	return c.mach * speedOfSoundFactor * math.Sqrt(temperatureK)
}

// Groundspeed adds the signed headwind component
// windSpeed*cos(windFrom-course) to tas.
func Groundspeed(tas, windSpeed, windFrom, course float64) float64 {
	headwind := windSpeed * math.Cos((windFrom-course)*coordinates.DegreesToRadians)
	return tas + headwind
}

// Duration returns the flight time along wps. Any weather failure fails
// the whole estimate.
func (c *ETACalculator) Duration(ctx context.Context, wps []route.Waypoint) (time.Duration, error) {
	var hours float64

	for i := 1; i < len(wps); i++ {
		from, to := wps[i-1].Position(), wps[i].Position()

		dist := coordinates.DistanceNauticalMiles(from, to)
		course := coordinates.Bearing(from, to)
		mid := coordinates.Midpoint(from, to)

		wx, err := c.weather.Get(ctx, mid.Latitude, mid.Longitude)
		if err != nil {
			return 0, err
		}

		gs := Groundspeed(c.TrueAirspeed(wx.TemperatureK), wx.WindSpeed, wx.WindDirection, course)
		if gs <= 0 {
			return 0, fmt.Errorf("%w: leg %s -> %s", ErrNoGroundspeed, wps[i-1].ID, wps[i].ID)
		}
		hours += dist / gs
	}

	return time.Duration(hours * float64(time.Hour)), nil
}
