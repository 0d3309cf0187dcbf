package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/unklstewy/routewatch/internal/logging"
)

const (
	// DefaultTTL is how long a sample may be reused
	DefaultTTL = 30 * time.Minute

	// DefaultCacheSize bounds the number of cached coordinates
	DefaultCacheSize = 512
)

// Cache reuses samples per coordinate rounded to 0.1 degree.
//
// A sample is served while younger than the TTL as measured by the cache
// clock. The LRU evicts on the same TTL so memory stays bounded on long
// flights. Cache is owned by a single goroutine.
type Cache struct {
	fetcher Fetcher
	entries *expirable.LRU[string, Sample]
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewCache wraps fetcher. Zero size or ttl selects the defaults.
func NewCache(fetcher Fetcher, size int, ttl time.Duration, logger *slog.Logger) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		entries: expirable.NewLRU[string, Sample](size, nil, ttl),
		ttl:     ttl,
		now:     time.Now,
		logger:  logging.OrDefault(logger),
	}
}

// Key formats the cache key for a coordinate.
func Key(lat, lon float64) string {
	return fmt.Sprintf("%.1f,%.1f", lat, lon)
}

// Get returns the cached sample for the coordinate, fetching a new one when
// missing or stale.
func (c *Cache) Get(ctx context.Context, lat, lon float64) (Sample, error) {
	key := Key(lat, lon)

	if s, ok := c.entries.Get(key); ok && c.now().Sub(s.FetchedAt) < c.ttl {
		return s, nil
	}

	s, err := c.fetcher.Fetch(ctx, lat, lon)
	if err != nil {
		return Sample{}, err
	}
	// The cache clock decides freshness
	s.FetchedAt = c.now()
	c.entries.Add(key, s)

	c.logger.Debug("weather sampled",
		slog.String("key", key),
		slog.Float64("wind_kt", s.WindSpeed),
		slog.Float64("wind_dir", s.WindDirection),
		slog.Float64("temp_k", s.TemperatureK))

	return s, nil
}

// Len reports the number of cached samples.
func (c *Cache) Len() int {
	return c.entries.Len()
}
