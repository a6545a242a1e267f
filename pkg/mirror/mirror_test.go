package mirror

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appliedTime struct {
	atime, mtime time.Time
}

// stubAppliedTimes replaces the symlink-aware timestamp call with a recorder
// so that the in-memory filesystem can be used.
func stubAppliedTimes(t *testing.T) map[string]appliedTime {
	applied := map[string]appliedTime{}
	oldApplyTimes := applyTimes
	applyTimes = func(path string, atime, mtime time.Time) error {
		applied[path] = appliedTime{atime, mtime}
		return nil
	}
	t.Cleanup(func() { applyTimes = oldApplyTimes })
	return applied
}

func TestMaterialize(t *testing.T) {
	defer restoreFs()
	fs = afero.NewMemMapFs()
	applied := stubAppliedTimes(t)

	modTime := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	accessTime := modTime.Add(time.Hour)

	require.NoError(t, afero.WriteFile(fs, "/ws/src/main.rs", []byte("fn main() {}"), 0644))

	entries := []Entry{
		{RelPath: "src", IsDir: true, Mode: 0755, AccessTime: accessTime, ModTime: modTime},
		{RelPath: "src/main.rs", Mode: 0644, AccessTime: accessTime, ModTime: modTime},
	}

	require.NoError(t, Materialize(entries, Options{}, "/ws", "/dest"))

	contents, err := afero.ReadFile(fs, "/dest/src/main.rs")
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}", string(contents))

	// The original timestamps are reapplied to every materialized node.
	for _, path := range []string{"/dest/src", "/dest/src/main.rs"} {
		assert.Equal(t, appliedTime{accessTime, modTime}, applied[path], path)
	}
}

func TestMaterializeClean(t *testing.T) {
	defer restoreFs()
	fs = afero.NewMemMapFs()
	stubAppliedTimes(t)

	require.NoError(t, afero.WriteFile(fs, "/ws/src/main.rs", []byte("new"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dest/stray.tmp", []byte("stale"), 0644))

	entries := []Entry{
		{RelPath: "src", IsDir: true, Mode: 0755},
		{RelPath: "src/main.rs", Mode: 0644},
	}
	require.NoError(t, Materialize(entries, Options{Clean: true}, "/ws", "/dest"))

	exists, err := afero.Exists(fs, "/dest/stray.tmp")
	require.NoError(t, err)
	assert.False(t, exists, "clean must remove files not present in the source")

	exists, err = afero.Exists(fs, "/dest/src/main.rs")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMaterializeCleanGit(t *testing.T) {
	defer restoreFs()
	fs = afero.NewMemMapFs()
	stubAppliedTimes(t)

	require.NoError(t, afero.WriteFile(fs, "/ws/.git/HEAD", []byte("ref: refs/heads/main"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dest/.git/stale-object", []byte("stale"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dest/unrelated.txt", []byte("keep"), 0644))

	entries := []Entry{
		{RelPath: ".git", IsDir: true, Mode: 0755},
		{RelPath: ".git/HEAD", Mode: 0644},
	}
	require.NoError(t, Materialize(entries, Options{CleanGit: true}, "/ws", "/dest"))

	exists, err := afero.Exists(fs, "/dest/.git/stale-object")
	require.NoError(t, err)
	assert.False(t, exists, "clean_git must drop the stale .git tree")

	// Only the .git subtree is purged; the rest of the mirror stays.
	exists, err = afero.Exists(fs, "/dest/unrelated.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	contents, err := afero.ReadFile(fs, "/dest/.git/HEAD")
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/main", string(contents))
}

func TestMaterializeIdempotent(t *testing.T) {
	defer restoreFs()
	fs = afero.NewMemMapFs()
	stubAppliedTimes(t)

	files := map[string]string{
		"/ws/src/main.rs": "fn main() {}",
		"/ws/Cargo.toml":  "[package]",
	}
	for path, contents := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0644))
	}

	entries, err := Collect("/ws", Patterns{})
	require.NoError(t, err)

	require.NoError(t, Materialize(entries, Options{}, "/ws", "/dest"))
	first := destSnapshot(t)
	require.NoError(t, Materialize(entries, Options{}, "/ws", "/dest"))
	second := destSnapshot(t)

	assert.Equal(t, first, second)
	assert.Equal(t, "fn main() {}", first["/dest/src/main.rs"])
}

func destSnapshot(t *testing.T) map[string]string {
	snapshot := map[string]string{}
	err := afero.Walk(fs, "/dest", func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		contents, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		snapshot[path] = string(contents)
		return nil
	})
	require.NoError(t, err)
	return snapshot
}
