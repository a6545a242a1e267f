//go:build linux
// +build linux

package mirror

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// lchtimes sets the access and modification times on path itself, without
// following a symlink to its target.
func lchtimes(path string, atime, mtime time.Time) error {
	times := []unix.Timeval{
		unix.NsecToTimeval(atime.UnixNano()),
		unix.NsecToTimeval(mtime.UnixNano()),
	}
	return unix.Lutimes(path, times)
}

// fileTimes extracts the access and modification times from a stat result.
// Filesystems that don't report an access time fall back to the
// modification time.
func fileTimes(info os.FileInfo) (atime, mtime time.Time) {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok && stat != nil {
		return time.Unix(stat.Atim.Sec, stat.Atim.Nsec), info.ModTime()
	}
	return info.ModTime(), info.ModTime()
}
