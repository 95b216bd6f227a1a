// Package snapshot persists the final aggregate as a single JSON document.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"

	"cardpool/pkg/inventory"
)

// DefaultPath is where the static front-end expects the snapshot.
const DefaultPath = "site/data/cards.json"

// Write serializes the snapshot and overwrites path in one shot. There is no
// partial-write protocol: a crash earlier in the run leaves the previous
// snapshot untouched because nothing is written until the run is done.
func Write(path string, snap *inventory.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0o644)
}
