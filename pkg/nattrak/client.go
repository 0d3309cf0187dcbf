// Package nattrak provides a client for the North Atlantic track service
// and a parser for published track routeings.
//
// Tracks are published daily. A flight plan refers to one by the token
// "NAT" followed by the track letter (e.g. "NATA").
package nattrak

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the public track service address
	BaseURL = "https://nattrak.vatsim.net"

	// DefaultTimeout for API requests
	DefaultTimeout = 10 * time.Second
)

// Track is one published oceanic track.
type Track struct {
	Identifier   string `json:"identifier"`
	Active       bool   `json:"active"`
	LastRouteing string `json:"last_routeing"`
}

// Client fetches the current track collection.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
}

// Config contains configuration for the track client.
type Config struct {
	BaseURL           string
	RequestsPerMinute int
	Timeout           time.Duration
}

// NewClient creates a new track service client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 6
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Tracks returns every published track, active or not.
func (c *Client) Tracks(ctx context.Context) ([]Track, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tracks", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var tracks []Track
	if err := json.Unmarshal(body, &tracks); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return tracks, nil
}

// FindActive returns the active track whose identifier matches letter,
// ignoring case, or nil.
func FindActive(tracks []Track, letter string) *Track {
	for i := range tracks {
		if tracks[i].Active && strings.EqualFold(tracks[i].Identifier, letter) {
			return &tracks[i]
		}
	}
	return nil
}

// Entry is one element of a track routeing.
type Entry struct {
	// Token is the routeing element as published (e.g. "55/20" or "MALOT")
	Token string

	// Coordinate reports whether Latitude/Longitude were decoded from Token
	Coordinate bool

	Latitude  float64
	Longitude float64
}

var coordRe = regexp.MustCompile(`^(\d{2}(?:\d{2})?)/(\d{2}(?:\d{2})?)$`)

// ParseRouteing splits a routeing into entries. Elements shaped like
// "55/20" or "5530/2050" are latitude north / longitude west; four-digit
// groups carry minutes. Anything else is returned as a named fix.
func ParseRouteing(routeing string) []Entry {
	fields := strings.Fields(routeing)
	entries := make([]Entry, 0, len(fields))

	for _, tok := range fields {
		m := coordRe.FindStringSubmatch(tok)
		if m == nil {
			entries = append(entries, Entry{Token: tok})
			continue
		}
		entries = append(entries, Entry{
			Token:      tok,
			Coordinate: true,
			Latitude:   parseDegrees(m[1]),
			Longitude:  -parseDegrees(m[2]),
		})
	}

	return entries
}

// parseDegrees decodes "DD" or "DDMM". The regexp guarantees digits.
func parseDegrees(group string) float64 {
	deg, _ := strconv.Atoi(group[:2])
	if len(group) == 2 {
		return float64(deg)
	}
	minutes, _ := strconv.Atoi(group[2:4])
	return float64(deg) + float64(minutes)/60.0
}
