package db_test

import (
	"slices"
	"testing"

	"github.com/unklstewy/routewatch/internal/db"
	"github.com/unklstewy/routewatch/internal/db/dbtest"
)

var generations = []db.Generation{db.GenerationV1, db.GenerationV2}

// TestGenerationDetection tests that both schema generations are recognized.
func TestGenerationDetection(t *testing.T) {
	for _, gen := range generations {
		t.Run(gen.String(), func(t *testing.T) {
			nav, conn := dbtest.New(t, gen)
			if nav.Generation() != gen {
				t.Errorf("Expected generation %s, got %s", gen, nav.Generation())
			}

			detected, err := db.DetectGeneration(t.Context(), conn)
			if err != nil {
				t.Fatalf("DetectGeneration failed: %v", err)
			}
			if detected != gen {
				t.Errorf("Expected detected generation %s, got %s", gen, detected)
			}
		})
	}
}

// TestFixesQueryOrder tests that fixes come back in table search order.
func TestFixesQueryOrder(t *testing.T) {
	for _, gen := range generations {
		t.Run(gen.String(), func(t *testing.T) {
			nav, _ := dbtest.New(t, gen)

			fixes, err := nav.Fixes(t.Context(), "DUPE")
			if err != nil {
				t.Fatalf("Fixes failed: %v", err)
			}
			if len(fixes) != 2 {
				t.Fatalf("Expected 2 DUPE fixes, got %d", len(fixes))
			}
			if fixes[0].Latitude != 10.0 || fixes[1].Latitude != 51.2 {
				t.Errorf("Expected DUPE latitudes [10 51.2], got [%v %v]", fixes[0].Latitude, fixes[1].Latitude)
			}

			vor, err := nav.Fixes(t.Context(), "DVR")
			if err != nil {
				t.Fatalf("Fixes failed: %v", err)
			}
			want := db.Fix{ID: "DVR", Latitude: 51.1628, Longitude: 1.3597}
			if len(vor) != 1 || vor[0] != want {
				t.Errorf("Expected [%+v], got %+v", want, vor)
			}

			ndb, err := nav.Fixes(t.Context(), "CHT")
			if err != nil {
				t.Fatalf("Fixes failed: %v", err)
			}
			if len(ndb) != 1 {
				t.Errorf("Expected 1 CHT fix, got %d", len(ndb))
			}

			none, err := nav.Fixes(t.Context(), "NOPE")
			if err != nil {
				t.Fatalf("Fixes failed: %v", err)
			}
			if len(none) != 0 {
				t.Errorf("Expected no fixes, got %+v", none)
			}
		})
	}
}

// TestAirport tests airport reference point lookup.
func TestAirport(t *testing.T) {
	for _, gen := range generations {
		t.Run(gen.String(), func(t *testing.T) {
			nav, _ := dbtest.New(t, gen)

			apt, err := nav.Airport(t.Context(), "LFPG")
			if err != nil {
				t.Fatalf("Airport failed: %v", err)
			}
			if apt == nil {
				t.Fatal("Expected LFPG to be found")
			}
			if apt.ID != "LFPG" || apt.Latitude != 49.0097 {
				t.Errorf("Expected LFPG at 49.0097, got %s at %v", apt.ID, apt.Latitude)
			}

			missing, err := nav.Airport(t.Context(), "ZZZZ")
			if err != nil {
				t.Fatalf("Airport failed: %v", err)
			}
			if missing != nil {
				t.Errorf("Expected nil for unknown airport, got %+v", missing)
			}
		})
	}
}

// TestProcedures tests distinct procedure listing.
func TestProcedures(t *testing.T) {
	for _, gen := range generations {
		t.Run(gen.String(), func(t *testing.T) {
			nav, _ := dbtest.New(t, gen)

			sids, err := nav.Procedures(t.Context(), db.SID, "EGLL")
			if err != nil {
				t.Fatalf("Procedures failed: %v", err)
			}
			for _, want := range []db.Procedure{
				{ID: "DVR2J", Transition: "RW27L"},
				{ID: "BPK7F", Transition: "RW27L"},
			} {
				if !slices.Contains(sids, want) {
					t.Errorf("Expected %+v in %+v", want, sids)
				}
			}
			if len(sids) != 2 {
				t.Errorf("Expected 2 SIDs, got %d", len(sids))
			}

			stars, err := nav.Procedures(t.Context(), db.STAR, "LFPG")
			if err != nil {
				t.Fatalf("Procedures failed: %v", err)
			}
			if !slices.Equal(stars, []db.Procedure{{ID: "REM2A"}}) {
				t.Errorf("Expected [REM2A], got %+v", stars)
			}
		})
	}
}

// TestProcedureLegsOrdering tests leg order and the skipping of legs
// without coordinates.
func TestProcedureLegsOrdering(t *testing.T) {
	for _, gen := range generations {
		t.Run(gen.String(), func(t *testing.T) {
			nav, _ := dbtest.New(t, gen)

			sid, err := nav.ProcedureLegs(t.Context(), db.SID, "EGLL", db.Procedure{ID: "DVR2J", Transition: "RW27L"})
			if err != nil {
				t.Fatalf("ProcedureLegs failed: %v", err)
			}
			if got, want := ids(sid), []string{"DVR", "LON02", "LON01"}; !slices.Equal(got, want) {
				t.Errorf("Expected SID legs %v, got %v", want, got)
			}

			star, err := nav.ProcedureLegs(t.Context(), db.STAR, "LFPG", db.Procedure{ID: "REM2A"})
			if err != nil {
				t.Fatalf("ProcedureLegs failed: %v", err)
			}
			if got, want := ids(star), []string{"REMBA", "PG01", "PG02"}; !slices.Equal(got, want) {
				t.Errorf("Expected STAR legs %v, got %v", want, got)
			}
		})
	}
}

// TestProcedureLegsTransitions tests transition filtering of procedure legs.
func TestProcedureLegsTransitions(t *testing.T) {
	content := dbtest.Europe()
	content.SIDs = append(content.SIDs, dbtest.ProcedureRows{
		Airport:   "EGLL",
		Procedure: "MID3K",
		Legs: []dbtest.Leg{
			transitionLeg(10, "LON01", 51.40, -0.30, "RW09R"),
			transitionLeg(20, "LON02", 51.30, 0.30, "RW27L"),
			transitionLeg(30, "DVR", 51.1628, 1.3597, ""),
		},
	})

	tests := []struct {
		name string
		proc db.Procedure
		want []string
	}{
		{"Common route only", db.Procedure{ID: "MID3K"}, []string{"DVR"}},
		{"One transition", db.Procedure{ID: "MID3K", Transition: "RW27L"}, []string{"DVR", "LON02"}},
		{"All transitions", db.Procedure{ID: "MID3K", AllTransitions: true}, []string{"DVR", "LON02", "LON01"}},
		{"All transitions of DVR2J", db.Procedure{ID: "DVR2J", AllTransitions: true}, []string{"DVR", "LON02", "LON01"}},
	}

	for _, gen := range generations {
		nav, _ := dbtest.NewWithContent(t, gen, content)
		for _, tt := range tests {
			t.Run(gen.String()+"/"+tt.name, func(t *testing.T) {
				legs, err := nav.ProcedureLegs(t.Context(), db.SID, "EGLL", tt.proc)
				if err != nil {
					t.Fatalf("ProcedureLegs failed: %v", err)
				}
				if got := ids(legs); !slices.Equal(got, tt.want) {
					t.Errorf("Expected %v, got %v", tt.want, got)
				}
			})
		}
	}
}

// TestAirwayFixesDescending tests airway point order.
func TestAirwayFixesDescending(t *testing.T) {
	for _, gen := range generations {
		t.Run(gen.String(), func(t *testing.T) {
			nav, _ := dbtest.New(t, gen)

			fixes, err := nav.AirwayFixes(t.Context(), "UL9")
			if err != nil {
				t.Fatalf("AirwayFixes failed: %v", err)
			}
			if got, want := ids(fixes), []string{"REMBA", "KOK", "KONAN", "DVR", "ALESO"}; !slices.Equal(got, want) {
				t.Errorf("Expected %v, got %v", want, got)
			}

			unknown, err := nav.AirwayFixes(t.Context(), "UZ999")
			if err != nil {
				t.Fatalf("AirwayFixes failed: %v", err)
			}
			if len(unknown) != 0 {
				t.Errorf("Expected no fixes for unknown airway, got %v", ids(unknown))
			}
		})
	}
}

// TestHealthCheck tests the connection probe.
func TestHealthCheck(t *testing.T) {
	_, conn := dbtest.New(t, db.GenerationV1)
	if err := db.HealthCheck(t.Context(), conn); err != nil {
		t.Errorf("Expected healthy connection, got %v", err)
	}
	if err := db.HealthCheck(t.Context(), nil); err == nil {
		t.Error("Expected error for nil connection")
	}
}

func ids(fixes []db.Fix) []string {
	out := make([]string, len(fixes))
	for i, f := range fixes {
		out[i] = f.ID
	}
	return out
}

func transitionLeg(seq int, id string, lat, lon float64, transition string) dbtest.Leg {
	l := dbtest.Leg{Seq: seq, ID: id, Lat: &lat, Lon: &lon}
	if transition != "" {
		l.Transition = &transition
	}
	return l
}
