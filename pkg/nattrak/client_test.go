package nattrak

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRouteing(t *testing.T) {
	entries := ParseRouteing("MALOT 55/20 5530/30 56/4015 GISTI")
	require.Len(t, entries, 5)

	assert.Equal(t, Entry{Token: "MALOT"}, entries[0])

	assert.True(t, entries[1].Coordinate)
	assert.Equal(t, 55.0, entries[1].Latitude)
	assert.Equal(t, -20.0, entries[1].Longitude)

	assert.InDelta(t, 55.5, entries[2].Latitude, 1e-9)
	assert.Equal(t, -30.0, entries[2].Longitude)

	assert.Equal(t, 56.0, entries[3].Latitude)
	assert.InDelta(t, -40.25, entries[3].Longitude, 1e-9)

	assert.False(t, entries[4].Coordinate)
	assert.Equal(t, "GISTI", entries[4].Token)
}

func TestParseRouteingRejectsOddGroups(t *testing.T) {
	// Three-digit groups are not coordinates
	entries := ParseRouteing("555/20 55/200")
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Coordinate)
	assert.False(t, entries[1].Coordinate)
}

func TestFindActive(t *testing.T) {
	tracks := []Track{
		{Identifier: "A", Active: false, LastRouteing: "old"},
		{Identifier: "B", Active: true, LastRouteing: "b"},
		{Identifier: "a", Active: true, LastRouteing: "current"},
	}

	got := FindActive(tracks, "A")
	require.NotNil(t, got)
	assert.Equal(t, "current", got.LastRouteing)

	assert.Nil(t, FindActive(tracks, "Z"))
}

func TestClientTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tracks", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"identifier":"A","active":true,"last_routeing":"MALOT 55/20 GISTI","valid_from":"x"}]`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL + "/", RequestsPerMinute: 600})
	tracks, err := c.Tracks(t.Context())
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, Track{Identifier: "A", Active: true, LastRouteing: "MALOT 55/20 GISTI"}, tracks[0])
}

func TestClientTracksHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	_, err := c.Tracks(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
