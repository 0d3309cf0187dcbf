// routewatch follows one VATSIM flight along its filed route.
//
// It resolves the route against a navigation database, polls live telemetry
// and publishes progress, deviation, anomaly and arrival statistics on a
// read-only status endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/unklstewy/routewatch/internal/db"
	"github.com/unklstewy/routewatch/internal/logging"
	"github.com/unklstewy/routewatch/pkg/config"
	"github.com/unklstewy/routewatch/pkg/nattrak"
	"github.com/unklstewy/routewatch/pkg/route"
	"github.com/unklstewy/routewatch/pkg/telemetry"
	"github.com/unklstewy/routewatch/pkg/tracking"
	"github.com/unklstewy/routewatch/pkg/weather"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	callsign := flag.String("callsign", "", "Callsign to follow (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *callsign != "" {
		cfg.Telemetry.Callsign = *callsign
	}

	logger := logging.New(cfg.Logging)
	defer logger.Close()

	if err := run(cfg, logger.Logger); err != nil {
		logger.Error("routewatch stopped", slog.Any("err", err))
		logger.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Only a database server is worth waiting for
	retries := 0
	if cfg.NavDatabase.Driver == "postgres" {
		retries = 5
	}
	database, err := db.ConnectWithRetry(ctx, cfg.NavDatabase, retries, 2*time.Second, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.HealthCheck(ctx, database); err != nil {
		return err
	}

	nav, err := db.Open(ctx, database)
	if err != nil {
		return err
	}
	logger.Info("navigation database ready",
		slog.String("driver", database.Driver()),
		slog.String("generation", nav.Generation().String()))

	tracks := nattrak.NewClient(nattrak.Config{
		BaseURL:           cfg.Oceanic.BaseURL,
		RequestsPerMinute: cfg.Oceanic.RequestsPerMinute,
	})
	resolver := route.NewResolver(nav, tracks, logger)

	// From here on the worker owns the database handle
	bridge := route.NewBridge(ctx, resolver, logger)
	defer bridge.Close()

	feed := telemetry.NewVatsimClient(telemetry.VatsimConfig{
		URL:               cfg.Telemetry.BaseURL,
		RequestsPerMinute: cfg.Telemetry.RequestsPerMinute,
	})
	wx := weather.NewCache(weather.NewClient(weather.Config{
		BaseURL:           cfg.Weather.BaseURL,
		PressureLevelHPa:  cfg.Weather.PressureLevelHPa,
		RequestsPerSecond: cfg.Weather.RequestsPerSecond,
	}), cfg.Weather.CacheSize, cfg.Weather.CacheTTL(), logger)

	tracker := tracking.NewTracker(tracking.Config{
		Callsign:         cfg.Telemetry.Callsign,
		MinInterval:      cfg.Tracker.MinRecompute(),
		TrackCapacity:    cfg.Tracker.TrackCapacity,
		StuckThreshold:   cfg.Tracker.StuckThreshold,
		Mach:             cfg.Tracker.Mach,
		LoopSnapshotPath: cfg.Tracker.LoopSnapshotPath,
	}, feed, bridge, wx, logger)

	status := &Status{}
	p := &poller{
		tracker:  tracker,
		status:   status,
		interval: cfg.Tracker.PollInterval(),
		out:      os.Stdout,
		logger:   logger,
	}

	logger.Info("tracking started",
		slog.String("callsign", cfg.Telemetry.Callsign),
		slog.Duration("poll", p.interval),
		slog.Duration("recompute", cfg.Tracker.MinRecompute()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.run(gctx)
		return nil
	})
	if cfg.Server.Enabled {
		srv := newServer(cfg.Server, status, logger)
		g.Go(func() error { return srv.serve(gctx) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("shutting down")
	return err
}
