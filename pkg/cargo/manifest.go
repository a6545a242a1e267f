package cargo

import (
	"os"
	"path/filepath"
)

// manifestName identifies a buildable project at a given directory.
const manifestName = "Cargo.toml"

// findManifest walks upward from start looking for the nearest manifest,
// stopping once stopAt has been checked.
func findManifest(start, stopAt string) (string, bool) {
	current := start
	for {
		candidate := filepath.Join(current, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		if current == stopAt {
			return "", false
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}
