package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/unklstewy/routewatch/pkg/config"
)

// DB wraps a navigation database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// Connect opens the navigation database described by cfg.
//
// SQLite files are opened read-only and limited to a single connection;
// the handle is meant to be owned by one goroutine. PostgreSQL uses the
// configured pool settings.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	var (
		sqlDB *sql.DB
		err   error
	)

	switch cfg.Driver {
	case "sqlite":
		if _, statErr := os.Stat(cfg.Path); statErr != nil {
			return nil, fmt.Errorf("nav database file: %w", statErr)
		}
		sqlDB, err = sql.Open("sqlite", "file:"+cfg.Path+"?mode=ro")
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)

	case "postgres":
		connStr := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.Username,
			cfg.Password,
			cfg.Database,
			cfg.SSLMode,
		)
		sqlDB, err = sql.Open("postgres", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Hour)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB, config: cfg}, nil
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.config.Driver
}

// rebind rewrites '?' placeholders to the driver's native form.
// PostgreSQL expects $1, $2, ...; SQLite accepts '?' as written.
func (db *DB) rebind(query string) string {
	if db.config.Driver != "postgres" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// tableExists reports whether the named table is present.
func (db *DB) tableExists(ctx context.Context, name string) (bool, error) {
	var query string
	if db.config.Driver == "postgres" {
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`
	} else {
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}

	var count int
	if err := db.QueryRowContext(ctx, db.rebind(query), name).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}
