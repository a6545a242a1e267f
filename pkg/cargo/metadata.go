package cargo

import (
	"encoding/json"
	"os/exec"
	"path/filepath"

	"github.com/margo-build/margo/pkg/errors"
)

// cargoCommand is the executable we wrap. It's overridden in tests.
var cargoCommand = "cargo"

// WorkspaceRoot asks cargo where the workspace's top-level directory is and
// canonicalizes the answer.
func WorkspaceRoot() (string, error) {
	out, err := exec.Command(cargoCommand,
		"metadata", "--no-deps", "--format-version", "1").Output()
	if err != nil {
		return "", errors.WithContext(err, "run cargo metadata")
	}

	var metadata struct {
		WorkspaceRoot string `json:"workspace_root"`
	}
	if err := json.Unmarshal(out, &metadata); err != nil {
		return "", errors.WithContext(err, "parse cargo metadata")
	}
	if metadata.WorkspaceRoot == "" {
		return "", errors.New("cargo metadata reported no workspace root")
	}

	root, err := filepath.EvalSymlinks(metadata.WorkspaceRoot)
	if err != nil {
		return "", errors.WithContext(err, "canonicalize workspace root")
	}
	return root, nil
}
