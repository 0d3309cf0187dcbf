package tracking

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/unklstewy/routewatch/pkg/route"
)

// DefaultLoopSnapshotPath is where a looping track is dumped.
const DefaultLoopSnapshotPath = "loops.json"

// WriteLoopSnapshot overwrites path with the track as indented JSON.
func WriteLoopSnapshot(path string, track []route.Waypoint) error {
	data, err := json.MarshalIndent(track, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal track: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write loop snapshot: %w", err)
	}
	return nil
}
