package mirror

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/margo-build/margo/pkg/errors"
)

// Options controls how the destination is prepared before copying.
type Options struct {
	// Clean removes the whole destination before copying.
	Clean bool

	// CleanGit removes a stale .git tree directly under the destination
	// before copying. Only ever set when .git is being copied fresh.
	CleanGit bool
}

// applyTimes reapplies the source timestamps to a mirrored node without
// following symlinks. It's overridden in tests, where the in-memory
// filesystem can't take symlink-aware timestamps.
var applyTimes = lchtimes

// Materialize replicates the collected entries into destDir. Every file is
// recopied unconditionally; there is no modification-time short circuit.
// Any failure aborts the run with the offending path, and no rollback of the
// partially written mirror is attempted.
func Materialize(entries []Entry, opts Options, workspaceRoot, destDir string) error {
	if opts.Clean {
		if err := fs.RemoveAll(destDir); err != nil {
			return errors.WithContext(err, "clean destination "+destDir)
		}
	}
	if err := fs.MkdirAll(destDir, 0755); err != nil {
		return errors.WithContext(err, "create destination "+destDir)
	}

	if opts.CleanGit {
		gitDir := filepath.Join(destDir, gitDirName)
		if err := fs.RemoveAll(gitDir); err != nil {
			return errors.WithContext(err, "clean stale "+gitDir)
		}
	}

	bar := newProgressBar(len(entries))
	for _, entry := range entries {
		srcPath := filepath.Join(workspaceRoot, entry.RelPath)
		dstPath := filepath.Join(destDir, entry.RelPath)

		if entry.IsDir {
			if err := fs.MkdirAll(dstPath, 0755); err != nil {
				return errors.WithContext(err, "create directory "+dstPath)
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return errors.WithContext(err,
					fmt.Sprintf("copy %s -> %s", srcPath, dstPath))
			}
		}

		if err := applyTimes(dstPath, entry.AccessTime, entry.ModTime); err != nil {
			return errors.WithContext(err, "set timestamps on "+dstPath)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	return nil
}

func copyFile(srcPath, dstPath string) error {
	src, err := fs.Open(srcPath)
	if err != nil {
		return errors.WithContext(err, "open source")
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return errors.WithContext(err, "stat source")
	}

	dst, err := fs.Create(dstPath)
	if err != nil {
		return errors.WithContext(err, "create destination")
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.WithContext(err, "copy contents")
	}
	if err := dst.Close(); err != nil {
		return errors.WithContext(err, "close destination")
	}

	return fs.Chmod(dstPath, info.Mode())
}

func newProgressBar(length int) *progressbar.ProgressBar {
	return progressbar.NewOptions(length,
		progressbar.OptionSetDescription("Copying files"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}))
}
