package paths

import (
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/margo-build/margo/pkg/config"
	"github.com/margo-build/margo/pkg/errors"
)

// defaultBaseDirName is the directory under the user's home that holds
// mirrored projects when no dest_base_dir is configured.
const defaultBaseDirName = "tmp"

// DestinationDir resolves the mirror root for the given workspace. The
// result is normalized lexically only: the destination may not exist yet, so
// the real filesystem is never consulted.
func DestinationDir(cfg config.Effective, workspaceRoot string) (string, error) {
	project := cfg.ProjectDir
	if project == "" {
		project = filepath.Base(workspaceRoot)
	}

	base := cfg.DestBaseDir
	if base != "" {
		expanded, err := homedir.Expand(base)
		if err != nil {
			return "", errors.WithContext(err, "expand dest_base_dir")
		}
		base = expanded
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return "", errors.WithContext(err, "locate home directory")
		}
		base = filepath.Join(home, defaultBaseDirName)
	}

	return Normalize(filepath.Join(base, project)), nil
}

// Normalize cleans a path lexically, collapsing redundant separators and
// `..` segments without touching the filesystem.
func Normalize(path string) string {
	return filepath.Clean(path)
}

// ResolveRunCwd resolves an optional run working directory against baseDir.
// The directory must exist on the real filesystem; source names where the
// value came from (the CLI flag or the config file) so the error points the
// user at the right place. An empty runCwd resolves to empty with no error.
func ResolveRunCwd(runCwd, baseDir, source string) (string, error) {
	if runCwd == "" {
		return "", nil
	}

	if !filepath.IsAbs(runCwd) {
		runCwd = filepath.Join(baseDir, runCwd)
	}

	resolved, err := filepath.EvalSymlinks(runCwd)
	if err != nil {
		return "", errors.WithContext(
			errors.FileNotFound{Path: runCwd}, "resolve "+source)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", errors.WithContext(err, "stat run cwd")
	}
	if !info.IsDir() {
		return "", errors.WithContext(
			errors.NotADirectory{Path: resolved}, "resolve "+source)
	}

	return Normalize(resolved), nil
}
