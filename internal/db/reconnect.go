package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unklstewy/routewatch/internal/logging"
	"github.com/unklstewy/routewatch/pkg/config"
)

// ConnectWithRetry attempts to connect to the database with exponential backoff.
// This covers a PostgreSQL nav server that is still starting when the daemon launches.
//
// Parameters:
//   - ctx: Cancels the wait between attempts
//   - cfg: Database configuration
//   - maxRetries: Maximum number of connection attempts (0 = infinite)
//   - initialDelay: Initial wait time between retries
//
// Returns: Connected database or error if all retries exhausted
func ConnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration, logger *slog.Logger) (*DB, error) {
	logger = logging.OrDefault(logger)
	delay := initialDelay
	attempt := 0

	for {
		attempt++

		logger.Debug("nav database connection attempt", slog.Int("attempt", attempt))

		db, err := Connect(cfg)
		if err == nil {
			if attempt > 1 {
				logger.Info("nav database connected", slog.Int("attempts", attempt))
			}
			return db, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempt, err)
		}

		logger.Warn("nav database connection failed",
			slog.Any("err", err), slog.Duration("retry_in", delay))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		// Exponential backoff with cap at 60 seconds
		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// HealthCheck reports whether the database answers a trivial query.
func HealthCheck(ctx context.Context, db *DB) error {
	if db == nil {
		return fmt.Errorf("no database connection")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("health check query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("health check returned %d", result)
	}
	return nil
}
