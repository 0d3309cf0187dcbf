package route

import "slices"

// SliceAirway returns the airway points strictly between the join and exit
// fixes. fixes must be in airway order; traversal against that order comes
// back reversed so the result always runs from join towards exit.
//
// Nothing is returned when either fix is missing or the two are adjacent.
func SliceAirway(fixes []Waypoint, join, exit string) []Waypoint {
	start := indexOf(fixes, join)
	end := indexOf(fixes, exit)
	if start < 0 || end < 0 {
		return nil
	}

	switch {
	case start+1 < end:
		return slices.Clone(fixes[start+1 : end])
	case end+1 < start:
		out := slices.Clone(fixes[end+1 : start])
		slices.Reverse(out)
		return out
	default:
		// adjacent or the same fix
		return nil
	}
}

func indexOf(wps []Waypoint, id string) int {
	return slices.IndexFunc(wps, func(w Waypoint) bool { return w.ID == id })
}
