// Package dbtest builds small SQLite navigation databases for tests.
//
// The same content can be written in either schema generation so callers
// can check that both resolve identically.
package dbtest

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/unklstewy/routewatch/internal/db"
	"github.com/unklstewy/routewatch/pkg/config"
)

// Point is a named coordinate row.
type Point struct {
	ID  string
	Lat float64
	Lon float64
}

// Leg is one procedure or airway row. A nil Lat marks a leg without
// coordinates (heading or vector legs).
type Leg struct {
	Seq        int
	ID         string
	Lat        *float64
	Lon        *float64
	Transition *string
}

// ProcedureRows groups the legs of one procedure at one airport.
type ProcedureRows struct {
	Airport   string
	Procedure string
	Legs      []Leg
}

// Content is everything written into a fixture database.
type Content struct {
	Airports          []Point
	EnrouteWaypoints  []Point
	TerminalWaypoints []Point
	VHFNavaids        []Point
	EnrouteNDBs       []Point
	TerminalNDBs      []Point
	SIDs              []ProcedureRows
	STARs             []ProcedureRows
	Airways           map[string][]Leg
}

type tables struct {
	airports    string
	enrouteWpt  string
	terminalWpt string
	vhf         string
	enrouteNDB  string
	terminalNDB string
	sids        string
	stars       string
	airways     string
	vhfPrefix   string
	ndbPrefix   string
}

func tablesFor(gen db.Generation) tables {
	if gen == db.GenerationV2 {
		return tables{
			airports:    "tbl_pa_airports",
			enrouteWpt:  "tbl_ea_enroute_waypoints",
			terminalWpt: "tbl_pc_terminal_waypoints",
			vhf:         "tbl_d_vhfnavaids",
			enrouteNDB:  "tbl_db_enroute_ndbnavaids",
			terminalNDB: "tbl_pn_terminal_ndbnavaids",
			sids:        "tbl_pd_sids",
			stars:       "tbl_pe_stars",
			airways:     "tbl_er_enroute_airways",
			vhfPrefix:   "navaid",
			ndbPrefix:   "navaid",
		}
	}
	return tables{
		airports:    "tbl_airports",
		enrouteWpt:  "tbl_enroute_waypoints",
		terminalWpt: "tbl_terminal_waypoints",
		vhf:         "tbl_vhfnavaids",
		enrouteNDB:  "tbl_enroute_ndbnavaids",
		terminalNDB: "tbl_terminal_ndbnavaids",
		sids:        "tbl_sids",
		stars:       "tbl_stars",
		airways:     "tbl_enroute_airways",
		vhfPrefix:   "vor",
		ndbPrefix:   "ndb",
	}
}

// Write creates a fixture database at path in the given generation.
func Write(path string, gen db.Generation, c Content) error {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer conn.Close()

	t := tablesFor(gen)
	stmts := []string{
		`CREATE TABLE ` + t.airports + ` (airport_identifier TEXT, airport_ref_latitude REAL, airport_ref_longitude REAL)`,
		pointTable(t.enrouteWpt, "waypoint"),
		pointTable(t.terminalWpt, "waypoint"),
		pointTable(t.vhf, t.vhfPrefix),
		pointTable(t.enrouteNDB, t.ndbPrefix),
		pointTable(t.terminalNDB, t.ndbPrefix),
		procedureTable(t.sids),
		procedureTable(t.stars),
		`CREATE TABLE ` + t.airways + ` (route_identifier TEXT, seqno INTEGER, waypoint_identifier TEXT, waypoint_latitude REAL, waypoint_longitude REAL)`,
	}
	for _, s := range stmts {
		if _, err := conn.Exec(s); err != nil {
			return fmt.Errorf("create fixture table: %w", err)
		}
	}

	if err := insertPoints(conn, t.airports, "airport_identifier", "airport_ref_latitude", "airport_ref_longitude", c.Airports); err != nil {
		return err
	}
	pointSets := []struct {
		table, prefix string
		rows          []Point
	}{
		{t.enrouteWpt, "waypoint", c.EnrouteWaypoints},
		{t.terminalWpt, "waypoint", c.TerminalWaypoints},
		{t.vhf, t.vhfPrefix, c.VHFNavaids},
		{t.enrouteNDB, t.ndbPrefix, c.EnrouteNDBs},
		{t.terminalNDB, t.ndbPrefix, c.TerminalNDBs},
	}
	for _, ps := range pointSets {
		if err := insertPoints(conn, ps.table, ps.prefix+"_identifier", ps.prefix+"_latitude", ps.prefix+"_longitude", ps.rows); err != nil {
			return err
		}
	}

	for _, p := range c.SIDs {
		if err := insertProcedure(conn, t.sids, p); err != nil {
			return err
		}
	}
	for _, p := range c.STARs {
		if err := insertProcedure(conn, t.stars, p); err != nil {
			return err
		}
	}

	for name, legs := range c.Airways {
		for _, l := range legs {
			_, err := conn.Exec(`INSERT INTO `+t.airways+` (route_identifier, seqno, waypoint_identifier, waypoint_latitude, waypoint_longitude) VALUES (?, ?, ?, ?, ?)`,
				name, l.Seq, l.ID, l.Lat, l.Lon)
			if err != nil {
				return fmt.Errorf("insert airway %s: %w", name, err)
			}
		}
	}

	return nil
}

func pointTable(name, prefix string) string {
	return fmt.Sprintf(`CREATE TABLE %s (area_code TEXT, %s_identifier TEXT, %s_latitude REAL, %s_longitude REAL)`,
		name, prefix, prefix, prefix)
}

func procedureTable(name string) string {
	return `CREATE TABLE ` + name + ` (
		airport_identifier TEXT, procedure_identifier TEXT, transition_identifier TEXT,
		seqno INTEGER, waypoint_identifier TEXT, waypoint_latitude REAL, waypoint_longitude REAL)`
}

func insertPoints(conn *sql.DB, table, idCol, latCol, lonCol string, rows []Point) error {
	q := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?)`, table, idCol, latCol, lonCol)
	for _, p := range rows {
		if _, err := conn.Exec(q, p.ID, p.Lat, p.Lon); err != nil {
			return fmt.Errorf("insert %s into %s: %w", p.ID, table, err)
		}
	}
	return nil
}

func insertProcedure(conn *sql.DB, table string, p ProcedureRows) error {
	for _, l := range p.Legs {
		var id any
		if l.ID != "" {
			id = l.ID
		}
		_, err := conn.Exec(`INSERT INTO `+table+` (airport_identifier, procedure_identifier, transition_identifier, seqno, waypoint_identifier, waypoint_latitude, waypoint_longitude) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.Airport, p.Procedure, l.Transition, l.Seq, id, l.Lat, l.Lon)
		if err != nil {
			return fmt.Errorf("insert %s %s: %w", table, p.Procedure, err)
		}
	}
	return nil
}

// New writes Europe() in the given generation under t.TempDir and
// returns a connected, generation-aware NavData plus its handle.
func New(t testing.TB, gen db.Generation) (db.NavData, *db.DB) {
	t.Helper()
	return NewWithContent(t, gen, Europe())
}

// NewWithContent is New with caller-supplied content.
func NewWithContent(t testing.TB, gen db.Generation, c Content) (db.NavData, *db.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), fmt.Sprintf("nav-%s.s3db", gen))
	if err := Write(path, gen, c); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	conn, err := db.Connect(config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("connect fixture: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	nav, err := db.Open(t.Context(), conn)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	return nav, conn
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func leg(seq int, id string, lat, lon float64, transition *string) Leg {
	return Leg{Seq: seq, ID: id, Lat: floatPtr(lat), Lon: floatPtr(lon), Transition: transition}
}

// Europe returns a small London to Paris data set.
//
// Airway UL9 runs ALESO DVR KONAN KOK REMBA. SID DVR2J (EGLL, RW27L)
// ends at DVR and STAR REM2A (LFPG) starts at REMBA. DUPE exists twice,
// once near the Channel and once in Africa.
func Europe() Content {
	rw27l := strPtr("RW27L")
	return Content{
		Airports: []Point{
			{"EGLL", 51.4775, -0.4614},
			{"LFPG", 49.0097, 2.5478},
			{"KJFK", 40.6398, -73.7789},
		},
		EnrouteWaypoints: []Point{
			{"KONAN", 51.1333, 2.0},
			{"REMBA", 50.5, 2.3},
			{"ALESO", 51.0, 1.3},
			{"DUPE", 10.0, 10.0},
			{"DUPE", 51.2, 1.0},
			{"MALOT", 53.0, -15.0},
			{"GISTI", 54.0, -15.0},
		},
		TerminalWaypoints: []Point{
			{"LON01", 51.40, -0.30},
			{"LON02", 51.30, 0.30},
			{"PG01", 49.5, 2.4},
			{"PG02", 49.2, 2.5},
		},
		VHFNavaids: []Point{
			{"DVR", 51.1628, 1.3597},
			{"KOK", 51.0944, 2.6528},
		},
		EnrouteNDBs: []Point{
			{"PST", 50.9, 1.8},
		},
		TerminalNDBs: []Point{
			{"CHT", 51.6236, -0.5175},
		},
		SIDs: []ProcedureRows{
			{Airport: "EGLL", Procedure: "DVR2J", Legs: []Leg{
				{Seq: 5, Transition: rw27l},
				leg(10, "LON01", 51.40, -0.30, rw27l),
				leg(20, "LON02", 51.30, 0.30, rw27l),
				leg(30, "DVR", 51.1628, 1.3597, rw27l),
			}},
			{Airport: "EGLL", Procedure: "BPK7F", Legs: []Leg{
				leg(10, "LON01", 51.40, -0.30, rw27l),
				leg(20, "CHT", 51.6236, -0.5175, rw27l),
			}},
		},
		STARs: []ProcedureRows{
			{Airport: "LFPG", Procedure: "REM2A", Legs: []Leg{
				leg(10, "REMBA", 50.5, 2.3, nil),
				leg(20, "PG01", 49.5, 2.4, nil),
				leg(30, "PG02", 49.2, 2.5, nil),
			}},
		},
		Airways: map[string][]Leg{
			"UL9": {
				leg(10, "ALESO", 51.0, 1.3, nil),
				leg(20, "DVR", 51.1628, 1.3597, nil),
				leg(30, "KONAN", 51.1333, 2.0, nil),
				leg(40, "KOK", 51.0944, 2.6528, nil),
				leg(50, "REMBA", 50.5, 2.3, nil),
			},
		},
	}
}
