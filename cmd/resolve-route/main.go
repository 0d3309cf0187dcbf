// resolve-route resolves one filed route against a navigation database and
// prints the resulting waypoints.
//
//	resolve-route -dep EGLL -arr LFPG "DVR2J DVR UL9 REMBA REM2A"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/routewatch/internal/db"
	"github.com/unklstewy/routewatch/pkg/config"
	"github.com/unklstewy/routewatch/pkg/coordinates"
	"github.com/unklstewy/routewatch/pkg/nattrak"
	"github.com/unklstewy/routewatch/pkg/route"
	"github.com/unklstewy/routewatch/pkg/tracking"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39")).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true)

var (
	identStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Width(10)
	coordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	legStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	navPath := flag.String("navdb", "", "SQLite nav database (overrides config)")
	departure := flag.String("dep", "", "Departure airport ICAO code")
	arrival := flag.String("arr", "", "Arrival airport ICAO code")
	oceanic := flag.Bool("nat", false, "Fetch live North Atlantic tracks for NAT tokens")
	verbose := flag.Bool("v", false, "Log resolver decisions")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: resolve-route [flags] \"ROUTE STRING\"")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	if *navPath != "" {
		cfg.NavDatabase.Driver = "sqlite"
		cfg.NavDatabase.Path = *navPath
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	plan := route.FlightPlan{
		Departure: strings.ToUpper(*departure),
		Arrival:   strings.ToUpper(*arrival),
		Route:     strings.Join(flag.Args(), " "),
	}

	var tracks route.TrackSource
	if *oceanic {
		tracks = nattrak.NewClient(nattrak.Config{
			BaseURL:           cfg.Oceanic.BaseURL,
			RequestsPerMinute: cfg.Oceanic.RequestsPerMinute,
		})
	}

	if err := resolve(context.Background(), os.Stdout, cfg.NavDatabase, plan, tracks, logger); err != nil {
		fail("%v", err)
	}
}

func resolve(ctx context.Context, w io.Writer, dbCfg config.DatabaseConfig, plan route.FlightPlan, tracks route.TrackSource, logger *slog.Logger) error {
	database, err := db.Connect(dbCfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer database.Close()

	if err := db.HealthCheck(ctx, database); err != nil {
		return err
	}

	nav, err := db.Open(ctx, database)
	if err != nil {
		return err
	}

	tokens := route.Tokenize(plan.Route)
	wps, err := route.NewResolver(nav, tracks, logger).Resolve(ctx, tokens, plan)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s -> %s  (%s, %d tokens)",
		orDash(plan.Departure), orDash(plan.Arrival), nav.Generation(), len(tokens))))

	for i, wp := range wps {
		line := identStyle.Render(wp.ID) + coordStyle.Render(fmt.Sprintf("%9.4f %10.4f", wp.Lat, wp.Lon))
		if i > 0 {
			prev := wps[i-1].Position()
			line += legStyle.Render(fmt.Sprintf("  %6.1f nm  %03.0f°",
				coordinates.DistanceNauticalMiles(prev, wp.Position()),
				coordinates.Bearing(prev, wp.Position())))
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "\n%d waypoints, %.1f nm\n", len(wps), tracking.RouteLengthNM(wps))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func fail(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf(format, args...)))
	os.Exit(1)
}
