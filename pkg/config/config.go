package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Server      ServerConfig    `json:"server"`
	NavDatabase DatabaseConfig  `json:"nav_database"`
	Telemetry   TelemetryConfig `json:"telemetry"`
	Oceanic     OceanicConfig   `json:"oceanic"`
	Weather     WeatherConfig   `json:"weather"`
	Tracker     TrackerConfig   `json:"tracker"`
	Logging     LoggingConfig   `json:"logging"`
}

// ServerConfig contains the status HTTP server configuration.
type ServerConfig struct {
	// Enabled determines if the read-only status endpoint is served
	Enabled bool `json:"enabled"`

	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "127.0.0.1")
	Host string `json:"host"`

	// AllowedOrigins lists CORS origins permitted to read the status endpoint
	AllowedOrigins []string `json:"allowed_origins"`
}

// DatabaseConfig contains navigation database connection settings.
type DatabaseConfig struct {
	// Driver is the database driver (sqlite, postgres)
	Driver string `json:"driver"`

	// Path is the SQLite nav database file (sqlite driver only)
	Path string `json:"path"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections.
	// SQLite is always limited to a single connection.
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// TelemetryConfig selects the live aircraft to follow.
type TelemetryConfig struct {
	// BaseURL is the network data feed endpoint
	BaseURL string `json:"base_url"`

	// Callsign of the aircraft to track
	Callsign string `json:"callsign"`

	// RequestsPerMinute limits feed downloads
	RequestsPerMinute int `json:"requests_per_minute"`
}

// OceanicConfig contains the North Atlantic track service settings.
type OceanicConfig struct {
	// BaseURL is the track API address (e.g., "https://nattrak.vatsim.net")
	BaseURL string `json:"base_url"`

	// RequestsPerMinute limits track fetches
	RequestsPerMinute int `json:"requests_per_minute"`
}

// WeatherConfig contains upper-air weather settings used for ETA estimates.
type WeatherConfig struct {
	// BaseURL is the forecast API address
	BaseURL string `json:"base_url"`

	// PressureLevelHPa is the sampled pressure level (250 ≈ FL340)
	PressureLevelHPa int `json:"pressure_level_hpa"`

	// CacheTTLMinutes is how long a sample is reused
	CacheTTLMinutes int `json:"cache_ttl_minutes"`

	// CacheSize bounds the number of cached samples
	CacheSize int `json:"cache_size"`

	// RequestsPerSecond limits forecast requests
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// TrackerConfig contains route tracking parameters.
type TrackerConfig struct {
	// PollIntervalSeconds is how often the daemon asks for statistics
	PollIntervalSeconds int `json:"poll_interval_seconds"`

	// MinRecomputeSeconds throttles real recomputation (default: 15)
	MinRecomputeSeconds int `json:"min_recompute_seconds"`

	// TrackCapacity is the maximum number of stored positions
	TrackCapacity int `json:"track_capacity"`

	// StuckThreshold is the number of identical samples tolerated before
	// the aircraft is reported stuck
	StuckThreshold int `json:"stuck_threshold"`

	// Mach is the assumed cruise Mach number for ETA estimates
	Mach float64 `json:"mach"`

	// LoopSnapshotPath is where the track is written when a loop is detected
	LoopSnapshotPath string `json:"loop_snapshot_path"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level"`

	// Dir is where the rotated JSON log is written. Empty disables file logging.
	Dir string `json:"dir"`
}

// MinRecompute returns the recompute throttle as a duration.
func (t TrackerConfig) MinRecompute() time.Duration {
	return time.Duration(t.MinRecomputeSeconds) * time.Second
}

// PollInterval returns the daemon poll interval as a duration.
func (t TrackerConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalSeconds) * time.Second
}

// CacheTTL returns the weather sample lifetime as a duration.
func (w WeatherConfig) CacheTTL() time.Duration {
	return time.Duration(w.CacheTTLMinutes) * time.Minute
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings the daemon cannot run without.
func (c *Config) Validate() error {
	switch c.NavDatabase.Driver {
	case "sqlite":
		if c.NavDatabase.Path == "" {
			return errors.New("nav_database.path is required for the sqlite driver")
		}
	case "postgres":
	default:
		return fmt.Errorf("unsupported nav_database.driver %q", c.NavDatabase.Driver)
	}
	if c.Telemetry.Callsign == "" {
		return errors.New("telemetry.callsign is required")
	}
	if c.Tracker.PollIntervalSeconds <= 0 || c.Tracker.MinRecomputeSeconds <= 0 {
		return errors.New("tracker intervals must be positive")
	}
	if c.Tracker.TrackCapacity <= 0 {
		return errors.New("tracker.track_capacity must be positive")
	}
	if c.Weather.CacheTTLMinutes <= 0 || c.Weather.CacheSize <= 0 {
		return errors.New("weather cache ttl and size must be positive")
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Enabled: true,
			Port:    "8080",
			Host:    "127.0.0.1",
		},
		NavDatabase: DatabaseConfig{
			Driver:       "sqlite",
			Path:         "data/navdata.s3db",
			Port:         5432,
			SSLMode:      "disable",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Telemetry: TelemetryConfig{
			BaseURL:           "https://data.vatsim.net/v3/vatsim-data.json",
			RequestsPerMinute: 4, // feed refreshes every 15 seconds
		},
		Oceanic: OceanicConfig{
			BaseURL:           "https://nattrak.vatsim.net",
			RequestsPerMinute: 6,
		},
		Weather: WeatherConfig{
			BaseURL:           "https://api.open-meteo.com",
			PressureLevelHPa:  250,
			CacheTTLMinutes:   30,
			CacheSize:         512,
			RequestsPerSecond: 5,
		},
		Tracker: TrackerConfig{
			PollIntervalSeconds: 1,
			MinRecomputeSeconds: 15,
			TrackCapacity:       120,
			StuckThreshold:      10,
			Mach:                0.86,
			LoopSnapshotPath:    "loops.json",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "logs",
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("ROUTEWATCH_PORT"); port != "" {
		c.Server.Port = port
	}
	if dbPassword := os.Getenv("ROUTEWATCH_DB_PASSWORD"); dbPassword != "" {
		c.NavDatabase.Password = dbPassword
	}
	if navPath := os.Getenv("ROUTEWATCH_NAVDB_PATH"); navPath != "" {
		c.NavDatabase.Path = navPath
	}
	if callsign := os.Getenv("ROUTEWATCH_CALLSIGN"); callsign != "" {
		c.Telemetry.Callsign = callsign
	}
	if level := os.Getenv("ROUTEWATCH_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
