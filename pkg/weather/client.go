// Package weather fetches upper-air wind and temperature samples and
// caches them per coordinate for a bounded time.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the public Open-Meteo forecast API
	BaseURL = "https://api.open-meteo.com"

	// DefaultPressureLevel is roughly FL340
	DefaultPressureLevel = 250

	// DefaultTimeout for API requests
	DefaultTimeout = 10 * time.Second

	celsiusToKelvin = 273.15
)

// ErrFetchFailed wraps every failure to obtain a sample.
var ErrFetchFailed = errors.New("weather fetch failed")

// Sample is the wind and temperature at one point.
type Sample struct {
	WindSpeed     float64   // knots
	WindDirection float64   // degrees, direction the wind blows from
	TemperatureK  float64   // kelvin
	FetchedAt     time.Time // when the sample was obtained
}

// Fetcher returns a fresh sample for a coordinate.
type Fetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (Sample, error)
}

// Config contains configuration for the Open-Meteo client.
type Config struct {
	BaseURL           string
	PressureLevelHPa  int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client queries Open-Meteo for pressure-level data.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	level       int
	now         func() time.Time
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.PressureLevelHPa <= 0 {
		cfg.PressureLevelHPa = DefaultPressureLevel
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		level:       cfg.PressureLevelHPa,
		now:         time.Now,
	}
}

type forecastResponse struct {
	Hourly map[string]json.RawMessage `json:"hourly"`
}

// Fetch returns the first hourly value at the configured pressure level.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (Sample, error) {
	s, err := c.fetch(ctx, lat, lon)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: %.2f,%.2f: %w", ErrFetchFailed, lat, lon, err)
	}
	return s, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (Sample, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Sample{}, fmt.Errorf("rate limiter: %w", err)
	}

	speedKey := fmt.Sprintf("wind_speed_%dhPa", c.level)
	dirKey := fmt.Sprintf("wind_direction_%dhPa", c.level)
	tempKey := fmt.Sprintf("temperature_%dhPa", c.level)

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("hourly", strings.Join([]string{speedKey, dirKey, tempKey}, ","))
	q.Set("wind_speed_unit", "kn")
	q.Set("forecast_days", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return Sample{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Sample{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Sample{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Sample{}, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var fr forecastResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return Sample{}, fmt.Errorf("parse response: %w", err)
	}

	speed, err := firstValue(fr.Hourly, speedKey)
	if err != nil {
		return Sample{}, err
	}
	dir, err := firstValue(fr.Hourly, dirKey)
	if err != nil {
		return Sample{}, err
	}
	temp, err := firstValue(fr.Hourly, tempKey)
	if err != nil {
		return Sample{}, err
	}

	return Sample{
		WindSpeed:     speed,
		WindDirection: dir,
		TemperatureK:  temp + celsiusToKelvin,
		FetchedAt:     c.now(),
	}, nil
}

func firstValue(hourly map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := hourly[key]
	if !ok {
		return 0, fmt.Errorf("missing hourly series %q", key)
	}

	var values []*float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if len(values) == 0 || values[0] == nil {
		return 0, fmt.Errorf("no value for %s", key)
	}
	return *values[0], nil
}
