package db

import (
	"context"
	"fmt"
)

// navDataV2 queries the section-coded table layout. Navaid tables use
// navaid_* columns instead of the vor_/ndb_ prefixes of the legacy layout.
type navDataV2 struct {
	db *DB
}

var v2FixQueries = []string{
	`SELECT waypoint_identifier, waypoint_latitude, waypoint_longitude FROM tbl_ea_enroute_waypoints WHERE waypoint_identifier = ?`,
	`SELECT waypoint_identifier, waypoint_latitude, waypoint_longitude FROM tbl_pc_terminal_waypoints WHERE waypoint_identifier = ?`,
	`SELECT navaid_identifier, navaid_latitude, navaid_longitude FROM tbl_d_vhfnavaids WHERE navaid_identifier = ?`,
	`SELECT navaid_identifier, navaid_latitude, navaid_longitude FROM tbl_db_enroute_ndbnavaids WHERE navaid_identifier = ?`,
	`SELECT navaid_identifier, navaid_latitude, navaid_longitude FROM tbl_pn_terminal_ndbnavaids WHERE navaid_identifier = ?`,
}

func (n *navDataV2) Generation() Generation { return GenerationV2 }

func (n *navDataV2) Fixes(ctx context.Context, ident string) ([]Fix, error) {
	return queryFixGroups(ctx, n.db, v2FixQueries, ident)
}

func (n *navDataV2) Airport(ctx context.Context, ident string) (*Fix, error) {
	return queryAirport(ctx, n.db,
		`SELECT airport_ref_latitude, airport_ref_longitude FROM tbl_pa_airports WHERE airport_identifier = ?`,
		ident)
}

func (n *navDataV2) Procedures(ctx context.Context, kind ProcedureKind, airport string) ([]Procedure, error) {
	return queryProcedures(ctx, n.db,
		`SELECT DISTINCT procedure_identifier, transition_identifier FROM `+n.procedureTable(kind)+` WHERE airport_identifier = ?`,
		airport)
}

func (n *navDataV2) ProcedureLegs(ctx context.Context, kind ProcedureKind, airport string, proc Procedure) ([]Fix, error) {
	return queryProcedureLegs(ctx, n.db, n.procedureTable(kind), kind, airport, proc)
}

func (n *navDataV2) AirwayFixes(ctx context.Context, airway string) ([]Fix, error) {
	fixes, err := queryFixes(ctx, n.db,
		`SELECT waypoint_identifier, waypoint_latitude, waypoint_longitude
		 FROM tbl_er_enroute_airways
		 WHERE route_identifier = ?
		 ORDER BY seqno DESC`,
		airway)
	if err != nil {
		return nil, fmt.Errorf("failed to get airway %s: %w", airway, err)
	}
	return fixes, nil
}

func (n *navDataV2) procedureTable(kind ProcedureKind) string {
	if kind == SID {
		return "tbl_pd_sids"
	}
	return "tbl_pe_stars"
}
