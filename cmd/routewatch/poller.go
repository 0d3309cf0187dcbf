package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/routewatch/pkg/route"
	"github.com/unklstewy/routewatch/pkg/telemetry"
	"github.com/unklstewy/routewatch/pkg/tracking"
)

// StatisticsSource is the part of the tracker the poller drives.
type StatisticsSource interface {
	Statistics(ctx context.Context) (tracking.RouteStatistics, error)
	UpdatedAt() time.Time
	Waypoints() []route.Waypoint
}

// poller asks the tracker for statistics every interval and publishes
// each new result.
type poller struct {
	tracker  StatisticsSource
	status   *Status
	interval time.Duration
	out      io.Writer
	logger   *slog.Logger

	published time.Time
}

func (p *poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *poller) poll(ctx context.Context) {
	stats, err := p.tracker.Statistics(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		level := slog.LevelWarn
		if errors.Is(err, telemetry.ErrNotConnected) {
			level = slog.LevelInfo
		}
		p.logger.Log(ctx, level, "statistics poll failed", slog.Any("err", err))
		return
	}

	updated := p.tracker.UpdatedAt()
	if !updated.After(p.published) {
		return
	}
	p.published = updated

	p.status.Publish(Snapshot{
		Statistics: stats,
		Route:      p.tracker.Waypoints(),
		UpdatedAt:  updated,
	})
	if p.out != nil {
		fmt.Fprintln(p.out, statusLine(stats))
	}
}

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// statusLine renders one console line for a fresh snapshot.
func statusLine(s tracking.RouteStatistics) string {
	field := func(label, value string) string {
		return labelStyle.Render(label) + " " + valueStyle.Render(value)
	}

	parts := []string{
		valueStyle.Render(s.Pilot.Callsign),
		field("prev", s.PrevWaypoint),
		field("next", s.NextWaypoint),
		field("dist", fmt.Sprintf("%.1fnm", s.DistNextWpNM)),
		field("dev", fmt.Sprintf("%.1fnm", s.DeviationNM)),
		field("done", fmt.Sprintf("%.1f%%", s.ProgressPct)),
		field("eta", s.ETA.Format("15:04")),
	}
	if s.InLoop {
		parts = append(parts, alertStyle.Render("LOOP"))
	}
	if s.Stuck {
		parts = append(parts, alertStyle.Render("STUCK"))
	}
	return strings.Join(parts, "  ")
}
