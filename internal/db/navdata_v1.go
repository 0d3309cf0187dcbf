package db

import (
	"context"
	"fmt"
)

// navDataV1 queries the legacy table layout.
type navDataV1 struct {
	db *DB
}

var v1FixQueries = []string{
	`SELECT waypoint_identifier, waypoint_latitude, waypoint_longitude FROM tbl_enroute_waypoints WHERE waypoint_identifier = ?`,
	`SELECT waypoint_identifier, waypoint_latitude, waypoint_longitude FROM tbl_terminal_waypoints WHERE waypoint_identifier = ?`,
	`SELECT vor_identifier, vor_latitude, vor_longitude FROM tbl_vhfnavaids WHERE vor_identifier = ?`,
	`SELECT ndb_identifier, ndb_latitude, ndb_longitude FROM tbl_enroute_ndbnavaids WHERE ndb_identifier = ?`,
	`SELECT ndb_identifier, ndb_latitude, ndb_longitude FROM tbl_terminal_ndbnavaids WHERE ndb_identifier = ?`,
}

func (n *navDataV1) Generation() Generation { return GenerationV1 }

func (n *navDataV1) Fixes(ctx context.Context, ident string) ([]Fix, error) {
	return queryFixGroups(ctx, n.db, v1FixQueries, ident)
}

func (n *navDataV1) Airport(ctx context.Context, ident string) (*Fix, error) {
	return queryAirport(ctx, n.db,
		`SELECT airport_ref_latitude, airport_ref_longitude FROM tbl_airports WHERE airport_identifier = ?`,
		ident)
}

func (n *navDataV1) Procedures(ctx context.Context, kind ProcedureKind, airport string) ([]Procedure, error) {
	return queryProcedures(ctx, n.db,
		`SELECT DISTINCT procedure_identifier, transition_identifier FROM `+n.procedureTable(kind)+` WHERE airport_identifier = ?`,
		airport)
}

func (n *navDataV1) ProcedureLegs(ctx context.Context, kind ProcedureKind, airport string, proc Procedure) ([]Fix, error) {
	return queryProcedureLegs(ctx, n.db, n.procedureTable(kind), kind, airport, proc)
}

func (n *navDataV1) AirwayFixes(ctx context.Context, airway string) ([]Fix, error) {
	fixes, err := queryFixes(ctx, n.db,
		`SELECT waypoint_identifier, waypoint_latitude, waypoint_longitude
		 FROM tbl_enroute_airways
		 WHERE route_identifier = ?
		 ORDER BY seqno DESC`,
		airway)
	if err != nil {
		return nil, fmt.Errorf("failed to get airway %s: %w", airway, err)
	}
	return fixes, nil
}

func (n *navDataV1) procedureTable(kind ProcedureKind) string {
	if kind == SID {
		return "tbl_sids"
	}
	return "tbl_stars"
}
