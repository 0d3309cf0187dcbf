package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Generation identifies the table/column naming scheme of a nav database.
type Generation int

const (
	// GenerationV1 is the legacy layout (tbl_enroute_waypoints, tbl_vhfnavaids, ...).
	GenerationV1 Generation = 1

	// GenerationV2 is the section-coded layout (tbl_ea_enroute_waypoints, tbl_d_vhfnavaids, ...).
	GenerationV2 Generation = 2
)

func (g Generation) String() string {
	switch g {
	case GenerationV1:
		return "v1"
	case GenerationV2:
		return "v2"
	default:
		return fmt.Sprintf("Generation(%d)", int(g))
	}
}

// v2MarkerTable only exists in second-generation databases.
const v2MarkerTable = "tbl_ea_enroute_waypoints"

// ProcedureKind selects departure or arrival procedures.
type ProcedureKind int

const (
	SID ProcedureKind = iota
	STAR
)

func (k ProcedureKind) String() string {
	if k == SID {
		return "SID"
	}
	return "STAR"
}

// Fix is a named point returned by the nav database.
type Fix struct {
	ID        string
	Latitude  float64
	Longitude float64
}

// Procedure is a distinct procedure/transition pair at an airport.
// Transition is empty for common-route legs.
type Procedure struct {
	ID         string
	Transition string

	// AllTransitions selects the legs of every transition of ID.
	AllTransitions bool
}

// Key returns the procedure and transition concatenated, the form
// flight plans usually file them in (e.g. "DVR2ALESO" or "BIG1A").
func (p Procedure) Key() string {
	return p.ID + p.Transition
}

// NavData is the query surface the route resolver needs. Implementations
// hide the schema generation behind identical typed operations.
type NavData interface {
	// Generation reports the detected schema generation.
	Generation() Generation

	// Fixes returns every point named ident, searching enroute waypoints,
	// terminal waypoints, VHF navaids, enroute NDBs and terminal NDBs in
	// that order.
	Fixes(ctx context.Context, ident string) ([]Fix, error)

	// Airport returns the airport reference point, or nil if unknown.
	Airport(ctx context.Context, ident string) (*Fix, error)

	// Procedures lists the distinct procedures published for an airport.
	Procedures(ctx context.Context, kind ProcedureKind, airport string) ([]Procedure, error)

	// ProcedureLegs returns the legs of a procedure that carry coordinates,
	// descending by sequence for SIDs and ascending for STARs. Common-route
	// legs (no transition) are always included, and every transition is
	// included when proc.AllTransitions is set.
	ProcedureLegs(ctx context.Context, kind ProcedureKind, airport string, proc Procedure) ([]Fix, error)

	// AirwayFixes returns the points of an airway ordered by sequence descending.
	AirwayFixes(ctx context.Context, airway string) ([]Fix, error)
}

// Open detects the schema generation of db and returns the matching NavData.
func Open(ctx context.Context, db *DB) (NavData, error) {
	gen, err := DetectGeneration(ctx, db)
	if err != nil {
		return nil, err
	}

	switch gen {
	case GenerationV2:
		return &navDataV2{db: db}, nil
	default:
		return &navDataV1{db: db}, nil
	}
}

// DetectGeneration inspects the database for the second-generation marker table.
func DetectGeneration(ctx context.Context, db *DB) (Generation, error) {
	v2, err := db.tableExists(ctx, v2MarkerTable)
	if err != nil {
		return 0, fmt.Errorf("failed to detect nav schema: %w", err)
	}
	if v2 {
		return GenerationV2, nil
	}

	v1, err := db.tableExists(ctx, "tbl_enroute_waypoints")
	if err != nil {
		return 0, fmt.Errorf("failed to detect nav schema: %w", err)
	}
	if !v1 {
		return 0, fmt.Errorf("unrecognized nav database: neither %s nor tbl_enroute_waypoints found", v2MarkerTable)
	}
	return GenerationV1, nil
}

// queryFixes runs a query selecting (identifier, latitude, longitude) rows.
func queryFixes(ctx context.Context, db *DB, query string, args ...any) ([]Fix, error) {
	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fixes []Fix
	for rows.Next() {
		var f Fix
		if err := rows.Scan(&f.ID, &f.Latitude, &f.Longitude); err != nil {
			return nil, err
		}
		fixes = append(fixes, f)
	}

	return fixes, rows.Err()
}

// queryFixGroups runs each lookup in order and concatenates the results.
func queryFixGroups(ctx context.Context, db *DB, queries []string, ident string) ([]Fix, error) {
	var fixes []Fix
	for _, q := range queries {
		found, err := queryFixes(ctx, db, q, ident)
		if err != nil {
			return nil, fmt.Errorf("failed to look up fix %s: %w", ident, err)
		}
		fixes = append(fixes, found...)
	}
	return fixes, nil
}

func queryAirport(ctx context.Context, db *DB, query, ident string) (*Fix, error) {
	f := Fix{ID: ident}
	err := db.QueryRowContext(ctx, db.rebind(query), ident).Scan(&f.Latitude, &f.Longitude)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get airport %s: %w", ident, err)
	}
	return &f, nil
}

func queryProcedures(ctx context.Context, db *DB, query, airport string) ([]Procedure, error) {
	rows, err := db.QueryContext(ctx, db.rebind(query), airport)
	if err != nil {
		return nil, fmt.Errorf("failed to list procedures for %s: %w", airport, err)
	}
	defer rows.Close()

	var procs []Procedure
	for rows.Next() {
		var (
			p          Procedure
			transition sql.NullString
		)
		if err := rows.Scan(&p.ID, &transition); err != nil {
			return nil, fmt.Errorf("failed to scan procedure: %w", err)
		}
		p.Transition = transition.String
		procs = append(procs, p)
	}

	return procs, rows.Err()
}

// procedureLegQuery builds the leg lookup for a procedure table. Table names
// are compile-time constants chosen by each generation, never user input.
func procedureLegQuery(table string, kind ProcedureKind, allTransitions bool) string {
	order := "ASC"
	if kind == SID {
		order = "DESC"
	}
	transition := `
		  AND (transition_identifier = ? OR transition_identifier IS NULL OR transition_identifier = '')`
	if allTransitions {
		transition = ""
	}
	return `SELECT waypoint_identifier, waypoint_latitude, waypoint_longitude
		FROM ` + table + `
		WHERE airport_identifier = ?
		  AND procedure_identifier = ?` + transition + `
		  AND waypoint_latitude IS NOT NULL
		ORDER BY seqno ` + order
}

func queryProcedureLegs(ctx context.Context, db *DB, table string, kind ProcedureKind, airport string, proc Procedure) ([]Fix, error) {
	args := []any{airport, proc.ID}
	if !proc.AllTransitions {
		args = append(args, proc.Transition)
	}
	fixes, err := queryFixes(ctx, db, procedureLegQuery(table, kind, proc.AllTransitions), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s legs at %s: %w", kind, proc.Key(), airport, err)
	}
	return fixes, nil
}
