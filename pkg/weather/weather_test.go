package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forecastJSON = `{
  "latitude": 51.5,
  "longitude": 1.25,
  "hourly": {
    "time": ["2026-10-19T00:00", "2026-10-19T01:00"],
    "wind_speed_250hPa": [85.2, 90.0],
    "wind_direction_250hPa": [270.0, 265.0],
    "temperature_250hPa": [-52.0, -53.5]
  }
}`

func TestClientFetch(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		q := r.URL.Query()
		query = map[string]string{
			"latitude":        q.Get("latitude"),
			"longitude":       q.Get("longitude"),
			"hourly":          q.Get("hourly"),
			"wind_speed_unit": q.Get("wind_speed_unit"),
			"forecast_days":   q.Get("forecast_days"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastJSON))
	}))
	defer srv.Close()

	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	c := NewClient(Config{BaseURL: srv.URL, RequestsPerSecond: 100})
	c.now = func() time.Time { return fixed }

	s, err := c.Fetch(t.Context(), 51.5, 1.25)
	require.NoError(t, err)

	assert.Equal(t, 85.2, s.WindSpeed)
	assert.Equal(t, 270.0, s.WindDirection)
	assert.InDelta(t, 221.15, s.TemperatureK, 1e-9)
	assert.Equal(t, fixed, s.FetchedAt)

	assert.Equal(t, map[string]string{
		"latitude":        "51.5000",
		"longitude":       "1.2500",
		"hourly":          "wind_speed_250hPa,wind_direction_250hPa,temperature_250hPa",
		"wind_speed_unit": "kn",
		"forecast_days":   "1",
	}, query)
}

func TestClientFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":true}`},
		{"bad json", http.StatusOK, `{`},
		{"missing series", http.StatusOK, `{"hourly":{"time":[]}}`},
		{"null value", http.StatusOK, `{"hourly":{"wind_speed_250hPa":[null],"wind_direction_250hPa":[1],"temperature_250hPa":[1]}}`},
		{"empty series", http.StatusOK, `{"hourly":{"wind_speed_250hPa":[],"wind_direction_250hPa":[],"temperature_250hPa":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, RequestsPerSecond: 100})
			_, err := c.Fetch(t.Context(), 0, 0)
			assert.ErrorIs(t, err, ErrFetchFailed)
		})
	}
}

func TestClientPressureLevel(t *testing.T) {
	var hourly string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hourly = r.URL.Query().Get("hourly")
		_, _ = w.Write([]byte(`{"hourly":{"wind_speed_300hPa":[10],"wind_direction_300hPa":[90],"temperature_300hPa":[-40]}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, PressureLevelHPa: 300, RequestsPerSecond: 100})
	s, err := c.Fetch(t.Context(), 10, 10)
	require.NoError(t, err)
	assert.Equal(t, "wind_speed_300hPa,wind_direction_300hPa,temperature_300hPa", hourly)
	assert.Equal(t, 90.0, s.WindDirection)
}

type countingFetcher struct {
	calls int
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context, lat, lon float64) (Sample, error) {
	f.calls++
	if f.err != nil {
		return Sample{}, f.err
	}
	return Sample{WindSpeed: float64(f.calls), WindDirection: 180, TemperatureK: 220}, nil
}

func TestKey(t *testing.T) {
	assert.Equal(t, "51.4,-0.5", Key(51.41, -0.47))
	assert.Equal(t, Key(51.41, 2.02), Key(51.38, 1.96))
	assert.NotEqual(t, Key(51.41, 2.0), Key(51.52, 2.0))
}

func TestCacheReuseAndRefetch(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	now := start

	f := &countingFetcher{}
	c := NewCache(f, 0, 0, nil)
	c.now = func() time.Time { return now }

	s, err := c.Get(t.Context(), 51.41, 2.02)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.WindSpeed)
	assert.Equal(t, start, s.FetchedAt)

	// Same rounded key, inside the window
	now = start.Add(29*time.Minute + 59*time.Second)
	s, err = c.Get(t.Context(), 51.38, 1.96)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.WindSpeed)
	assert.Equal(t, 1, f.calls)

	// Exactly 30 minutes old is stale
	now = start.Add(30 * time.Minute)
	s, err = c.Get(t.Context(), 51.41, 2.02)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.WindSpeed)
	assert.Equal(t, now, s.FetchedAt)
	assert.Equal(t, 2, f.calls)
	assert.Equal(t, 1, c.Len())

	// A different cell is fetched separately
	_, err = c.Get(t.Context(), 40, -70)
	require.NoError(t, err)
	assert.Equal(t, 3, f.calls)
	assert.Equal(t, 2, c.Len())
}

func TestCacheFetchError(t *testing.T) {
	f := &countingFetcher{err: errors.Join(ErrFetchFailed, errors.New("timeout"))}
	c := NewCache(f, 0, 0, nil)

	_, err := c.Get(t.Context(), 1, 1)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, 0, c.Len())

	_, _ = c.Get(t.Context(), 1, 1)
	assert.Equal(t, 2, f.calls, "failures are not cached")
}
