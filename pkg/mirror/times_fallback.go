//go:build !linux
// +build !linux

package mirror

import (
	"os"
	"time"
)

// lchtimes on non-Linux hosts falls back to os.Chtimes, which follows
// symlinks. margo targets WSL2, so this path only exists to keep the
// package buildable elsewhere.
func lchtimes(path string, atime, mtime time.Time) error {
	return os.Chtimes(path, atime, mtime)
}

func fileTimes(info os.FileInfo) (atime, mtime time.Time) {
	return info.ModTime(), info.ModTime()
}
