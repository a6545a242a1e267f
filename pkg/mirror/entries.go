package mirror

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/margo-build/margo/pkg/config"
	"github.com/margo-build/margo/pkg/errors"
)

// gitDirName and targetDirName are the only names treated specially by the
// selection rules, and only directly under the workspace root.
const (
	gitDirName    = ".git"
	targetDirName = "target"
)

// An Entry is one filesystem node under the workspace root that should be
// replicated into the mirror.
type Entry struct {
	// RelPath is the node's path relative to the workspace root.
	RelPath string

	IsDir bool
	Mode  os.FileMode

	// AccessTime and ModTime are the source node's timestamps at enumeration
	// time. They are reapplied to the mirrored node after it's materialized.
	AccessTime time.Time
	ModTime    time.Time
}

// Patterns describes which of the special top-level subtrees get copied.
type Patterns struct {
	IncludeGit    bool
	IncludeTarget bool
}

// NewPatterns derives the selection rules from the effective configuration.
func NewPatterns(cfg config.Effective) Patterns {
	return Patterns{
		IncludeGit:    cfg.IncludeGit,
		IncludeTarget: cfg.IncludeTarget,
	}
}

// excluded returns the top-level names that should be skipped. Deeper
// occurrences of the same names are copied like anything else.
func (p Patterns) excluded() map[string]bool {
	excluded := map[string]bool{}
	if !p.IncludeGit {
		excluded[gitDirName] = true
	}
	if !p.IncludeTarget {
		excluded[targetDirName] = true
	}
	return excluded
}

// Collect enumerates the source tree and returns the entries to replicate.
// It only reads the filesystem; materializing the entries is Materialize's
// job. The returned slice is ordered parent-before-child, so a directory is
// always listed ahead of anything nested under it.
func Collect(workspaceRoot string, patterns Patterns) ([]Entry, error) {
	excluded := patterns.excluded()

	var entries []Entry
	err := afero.Walk(fs, workspaceRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk "+path)
		}

		relPath, err := filepath.Rel(workspaceRoot, path)
		if err != nil {
			return errors.WithContext(err, "relativize "+path)
		}
		if relPath == "." {
			return nil
		}

		if excluded[relPath] {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		atime, mtime := fileTimes(info)
		entries = append(entries, Entry{
			RelPath:    relPath,
			IsDir:      info.IsDir(),
			Mode:       info.Mode(),
			AccessTime: atime,
			ModTime:    mtime,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
