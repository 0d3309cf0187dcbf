package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// FeedURL is the public VATSIM v3 data feed
	FeedURL = "https://data.vatsim.net/v3/vatsim-data.json"

	// DefaultTimeout for feed downloads
	DefaultTimeout = 10 * time.Second
)

// VatsimConfig contains configuration for the VATSIM feed client.
type VatsimConfig struct {
	URL               string
	RequestsPerMinute int
	Timeout           time.Duration
}

// VatsimClient implements Source for the VATSIM network data feed.
// The feed refreshes every 15 seconds and lists every connected pilot.
type VatsimClient struct {
	url         string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewVatsimClient creates a new feed client.
func NewVatsimClient(cfg VatsimConfig) *VatsimClient {
	if cfg.URL == "" {
		cfg.URL = FeedURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 4
	}

	return &VatsimClient{
		url:         cfg.URL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1),
	}
}

type vatsimFeed struct {
	General struct {
		UpdateTimestamp time.Time `json:"update_timestamp"`
	} `json:"general"`
	Pilots []Pilot `json:"pilots"`
}

// Pilot downloads the feed and returns the pilot with the given callsign.
func (c *VatsimClient) Pilot(ctx context.Context, callsign string) (*Pilot, error) {
	feed, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	for i := range feed.Pilots {
		if strings.EqualFold(feed.Pilots[i].Callsign, callsign) {
			return &feed.Pilots[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotConnected, callsign)
}

func (c *VatsimClient) fetch(ctx context.Context) (*vatsimFeed, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	// Check for rate limit (HTTP 429)
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "Rate limit exceeded",
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: feed returned status %d: %s", ErrFetchFailed, resp.StatusCode, string(body))
	}

	var feed vatsimFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: decode feed: %w", ErrFetchFailed, err)
	}
	return &feed, nil
}

// RateLimitError represents an HTTP 429 from the feed. It matches
// ErrFetchFailed under errors.Is.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return e.Message
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrFetchFailed
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// parseRetryAfter reads Retry-After as delay-seconds or an HTTP date.
func parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(retryTime); d > 0 {
			return d
		}
	}

	return 0
}
