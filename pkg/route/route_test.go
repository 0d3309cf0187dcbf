package route

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unklstewy/routewatch/internal/db"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		route string
		want  []string
	}{
		{"plain", "DVR2J DVR UL9 REMBA REM2A", []string{"DVR2J", "DVR", "UL9", "REMBA", "REM2A"}},
		{"direct removed in any case", "ALESO DCT KOK dct REMBA Dct", []string{"ALESO", "KOK", "REMBA"}},
		{"extra whitespace", "  ALESO\tUL9   KOK \n", []string{"ALESO", "UL9", "KOK"}},
		{"speed level suffix kept", "N0450F350 DVR/N0440F360", []string{"N0450F350", "DVR/N0440F360"}},
		{"empty", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.route))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := FingerprintOf(Tokenize("ALESO UL9 KOK"))
	b := FingerprintOf(Tokenize("ALESO  DCT UL9 KOK"))
	assert.Equal(t, a, b, "whitespace and DCT must not change the fingerprint")

	c := FingerprintOf(Tokenize("ALESO UL9 REMBA"))
	assert.NotEqual(t, a, c)

	// Same characters, different split
	d := FingerprintOf([]string{"ALESOUL9", "KOK"})
	assert.NotEqual(t, a, d)
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		tok      string
		ok       bool
		lat, lon float64
	}{
		{"50N020W", true, 50, -20},
		{"45S170E", true, -45, 170},
		{"00N000E", true, 0, 0},
		{"5N020W", false, 0, 0},
		{"50N20W", false, 0, 0},
		{"50X020W", false, 0, 0},
		{"DVR", false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			wp, ok := ParseCoordinate(tt.tok)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, Waypoint{ID: tt.tok, Lat: tt.lat, Lon: tt.lon}, wp)
			}
		})
	}
}

func TestRankProcedure(t *testing.T) {
	tests := []struct {
		name  string
		token string
		proc  db.Procedure
		rank  MatchRank
		score int
	}{
		{"exact with whole token", "REM2A", db.Procedure{ID: "REM2A"}, ExactMatch, 165},
		{"exact with level suffix", "REM2A/27R", db.Procedure{ID: "REM2A"}, ExactMatch, 115},
		{"token including transition text", "BIG1A/RW27", db.Procedure{ID: "BIG1A/RW", Transition: "27"}, TokenMatch, 60},
		{"lower case", "dvr2j", db.Procedure{ID: "DVR2J"}, ExactMatch, 160},
		{"letters only prefix", "DVR2J", db.Procedure{ID: "DVR2J", Transition: "RW27L"}, PrefixMatch, 10},
		{"numeric suffix only", "XYZ1A", db.Procedure{ID: "ABC1A"}, PrefixMatch, 5},
		{"no match", "ALESO1A", db.Procedure{ID: "BIG2B"}, NoMatch, 0},
		{"prefix longer than key", "LONGNAME1", db.Procedure{ID: "LON"}, NoMatch, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := RankProcedure(tt.token, tt.proc)
			assert.Equal(t, tt.rank, m.Rank)
			assert.Equal(t, tt.score, m.Score)
		})
	}
}

func TestSelectProcedure(t *testing.T) {
	t.Run("highest score wins", func(t *testing.T) {
		got, ok := SelectProcedure("DVR2J", []db.Procedure{
			{ID: "BPK7F", Transition: "RW27L"},
			{ID: "DVR2J", Transition: "RW27L"},
			{ID: "DVR2J"},
		})
		assert.True(t, ok)
		assert.Equal(t, db.Procedure{ID: "DVR2J"}, got)
	})

	t.Run("ties keep the first candidate", func(t *testing.T) {
		got, ok := SelectProcedure("DVR1A", []db.Procedure{
			{ID: "DVR2J", Transition: "RW27L"},
			{ID: "DVR2J", Transition: "RW09R"},
		})
		assert.True(t, ok)
		assert.Equal(t, "RW27L", got.Transition)
	})

	t.Run("nothing scores", func(t *testing.T) {
		_, ok := SelectProcedure("KOK", []db.Procedure{{ID: "BPK7F"}})
		assert.False(t, ok)

		_, ok = SelectProcedure("KOK", nil)
		assert.False(t, ok)
	})

	t.Run("fallback by id loads every transition", func(t *testing.T) {
		got, ok := procedureByID("dvr2j", []db.Procedure{
			{ID: "BPK7F", Transition: "RW27L"},
			{ID: "DVR2J", Transition: "RW27L"},
			{ID: "DVR2J", Transition: "RW09R"},
		})
		assert.True(t, ok)
		assert.Equal(t, db.Procedure{ID: "DVR2J", AllTransitions: true}, got)

		_, ok = procedureByID("KOK", []db.Procedure{{ID: "DVR2J"}})
		assert.False(t, ok)
	})
}

func TestSliceAirway(t *testing.T) {
	// Airway order as stored: sequence descending
	fixes := []Waypoint{{ID: "REMBA"}, {ID: "KOK"}, {ID: "KONAN"}, {ID: "DVR"}, {ID: "ALESO"}}

	tests := []struct {
		name       string
		join, exit string
		want       []string
	}{
		{"forward", "REMBA", "DVR", []string{"KOK", "KONAN"}},
		{"reverse", "DVR", "REMBA", []string{"KONAN", "KOK"}},
		{"adjacent forward", "KOK", "KONAN", nil},
		{"adjacent reverse", "KONAN", "KOK", nil},
		{"same fix", "KOK", "KOK", nil},
		{"missing join", "XXX", "DVR", nil},
		{"missing exit", "DVR", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SliceAirway(fixes, tt.join, tt.exit)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, IDs(got))
		})
	}

	// The input must not be modified by a reverse slice
	assert.Equal(t, []string{"REMBA", "KOK", "KONAN", "DVR", "ALESO"}, IDs(fixes))
}

func TestNearestTieKeepsFirst(t *testing.T) {
	prev := []Waypoint{{ID: "ORIGIN", Lat: 0, Lon: 0}}
	fixes := []db.Fix{
		{ID: "TIE", Latitude: 1, Longitude: 0},
		{ID: "TIE", Latitude: -1, Longitude: 0},
		{ID: "TIE", Latitude: 0, Longitude: 5},
	}

	got := nearest(fixes, prev)
	assert.Equal(t, 1.0, got.Lat)

	// Without a previous waypoint the first row is taken
	got = nearest([]db.Fix{{ID: "X", Latitude: 40}, {ID: "X", Latitude: 0.1}}, nil)
	assert.Equal(t, 40.0, got.Lat)
}

func TestDedupe(t *testing.T) {
	in := []Waypoint{{ID: "A", Lat: 1}, {ID: "B"}, {ID: "A", Lat: 2}, {ID: "C"}}
	out := dedupe(in)
	assert.Equal(t, []string{"A", "B", "C"}, IDs(out))
	assert.Equal(t, 1.0, out[0].Lat)
}

func TestString(t *testing.T) {
	assert.Equal(t, "A -> B", String([]Waypoint{{ID: "A"}, {ID: "B"}}))
	assert.Equal(t, UnknownID, Unknown(1, 2).ID)
}
