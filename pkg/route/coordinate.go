package route

import (
	"regexp"
	"strconv"
)

var latLonRe = regexp.MustCompile(`^(\d{2})([NS])(\d{3})([EW])$`)

// ParseCoordinate decodes a whole-degree coordinate token such as
// "50N020W". The waypoint is named after the token.
func ParseCoordinate(tok string) (Waypoint, bool) {
	m := latLonRe.FindStringSubmatch(tok)
	if m == nil {
		return Waypoint{}, false
	}

	lat, _ := strconv.Atoi(m[1])
	lon, _ := strconv.Atoi(m[3])
	if m[2] == "S" {
		lat = -lat
	}
	if m[4] == "W" {
		lon = -lon
	}

	return Waypoint{ID: tok, Lat: float64(lat), Lon: float64(lon)}, true
}
