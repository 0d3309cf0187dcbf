package tracking

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/unklstewy/routewatch/pkg/coordinates"
	"github.com/unklstewy/routewatch/pkg/route"
	"github.com/unklstewy/routewatch/pkg/weather"
)

type fakeWeather struct {
	sample weather.Sample
	err    error
	calls  int
}

func (f *fakeWeather) Get(ctx context.Context, lat, lon float64) (weather.Sample, error) {
	f.calls++
	return f.sample, f.err
}

func calm() *fakeWeather {
	return &fakeWeather{sample: weather.Sample{TemperatureK: 220}}
}

// TestTrueAirspeed tests TAS from Mach and temperature.
func TestTrueAirspeed(t *testing.T) {
	c := NewETACalculator(calm(), 0)

	if got, want := c.TrueAirspeed(220), 0.86*39*math.Sqrt(220); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected TAS %.6f, got %.6f", want, got)
	}
	if got := c.TrueAirspeed(220); math.Abs(got-497.5) > 0.1 {
		t.Errorf("Expected TAS ~497.5 kt, got %.2f", got)
	}
}

// TestGroundspeed tests the signed headwind component.
func TestGroundspeed(t *testing.T) {
	tests := []struct {
		name      string
		windSpeed float64
		windFrom  float64
		course    float64
		want      float64
	}{
		{"Calm", 0, 0, 90, 450},
		{"Wind along course", 100, 0, 0, 550},
		{"Wind against course", 100, 180, 0, 350},
		{"Crosswind", 100, 90, 0, 450},
		{"Thirty degrees off course", 100, 300, 270, 450 + 100*math.Cos(30*math.Pi/180)},
		{"Wrap around north", 100, 350, 10, 450 + 100*math.Cos(340*math.Pi/180)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Groundspeed(450, tt.windSpeed, tt.windFrom, tt.course)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected groundspeed %.6f, got %.6f", tt.want, got)
			}
		})
	}
}

// TestDuration tests flight time along a route.
func TestDuration(t *testing.T) {
	wps := meridianRoute()
	nm := RouteLengthNM(wps)

	t.Run("Calm", func(t *testing.T) {
		wx := calm()
		c := NewETACalculator(wx, 0.86)

		d, err := c.Duration(t.Context(), wps)
		if err != nil {
			t.Fatalf("Duration failed: %v", err)
		}

		want := nm / c.TrueAirspeed(220) * 3600
		if math.Abs(d.Seconds()-want) > 0.01 {
			t.Errorf("Expected %.2fs, got %.2fs", want, d.Seconds())
		}
		if wx.calls != 3 {
			t.Errorf("Expected one weather sample per leg (3), got %d", wx.calls)
		}
	})

	// The route runs due north, so every leg's course is 0
	windTests := []struct {
		name     string
		windFrom float64
		delta    float64
	}{
		{"Wind from north", 0, 100},
		{"Wind from south", 180, -100},
	}
	for _, tt := range windTests {
		t.Run(tt.name, func(t *testing.T) {
			wx := &fakeWeather{sample: weather.Sample{WindSpeed: 100, WindDirection: tt.windFrom, TemperatureK: 220}}
			c := NewETACalculator(wx, 0.86)

			d, err := c.Duration(t.Context(), wps)
			if err != nil {
				t.Fatalf("Duration failed: %v", err)
			}

			want := nm / (c.TrueAirspeed(220) + tt.delta) * 3600
			if math.Abs(d.Seconds()-want) > 0.01 {
				t.Errorf("Expected %.2fs, got %.2fs", want, d.Seconds())
			}
		})
	}

	t.Run("Wind stronger than airspeed", func(t *testing.T) {
		wx := &fakeWeather{sample: weather.Sample{WindSpeed: 900, WindDirection: 180, TemperatureK: 220}}
		_, err := NewETACalculator(wx, 0.86).Duration(t.Context(), wps)
		if !errors.Is(err, ErrNoGroundspeed) {
			t.Errorf("Expected ErrNoGroundspeed, got %v", err)
		}
	})

	t.Run("Weather failure", func(t *testing.T) {
		wx := &fakeWeather{err: weather.ErrFetchFailed}
		_, err := NewETACalculator(wx, 0.86).Duration(t.Context(), wps)
		if !errors.Is(err, weather.ErrFetchFailed) {
			t.Errorf("Expected ErrFetchFailed, got %v", err)
		}
	})

	t.Run("Single point", func(t *testing.T) {
		d, err := NewETACalculator(calm(), 0).Duration(t.Context(), wps[:1])
		if err != nil {
			t.Fatalf("Duration failed: %v", err)
		}
		if d != 0 {
			t.Errorf("Expected zero duration, got %v", d)
		}
	})
}

// TestDurationSamplesMidpoint tests that weather is sampled mid-leg.
func TestDurationSamplesMidpoint(t *testing.T) {
	var got []coordinates.Geographic
	wx := weatherFunc(func(lat, lon float64) {
		got = append(got, coordinates.Geographic{Latitude: lat, Longitude: lon})
	})

	wps := []route.Waypoint{{ID: "A", Lat: 50, Lon: 0}, {ID: "B", Lat: 52, Lon: 0}}
	if _, err := NewETACalculator(wx, 0).Duration(t.Context(), wps); err != nil {
		t.Fatalf("Duration failed: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("Expected 1 sample, got %d", len(got))
	}
	if math.Abs(got[0].Latitude-51) > 1e-9 || math.Abs(got[0].Longitude) > 1e-9 {
		t.Errorf("Expected sample at 51,0, got %.6f,%.6f", got[0].Latitude, got[0].Longitude)
	}
}

type weatherFunc func(lat, lon float64)

func (f weatherFunc) Get(ctx context.Context, lat, lon float64) (weather.Sample, error) {
	f(lat, lon)
	return weather.Sample{TemperatureK: 220}, nil
}
