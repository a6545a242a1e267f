package mirror

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyArtifacts(t *testing.T) {
	defer restoreFs()
	fs = afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs,
		"/dest/target/debug/app", []byte("ELF..."), 0755))

	err := CopyArtifacts("/dest", "/ws", []string{"/dest/target/debug/app"})
	require.NoError(t, err)

	// The artifact lands at the same relative path under the workspace, with
	// missing parents created along the way.
	contents, err := afero.ReadFile(fs, "/ws/target/debug/app")
	require.NoError(t, err)
	assert.Equal(t, "ELF...", string(contents))
}

func TestCopyArtifactsEmpty(t *testing.T) {
	defer restoreFs()
	fs = afero.NewMemMapFs()

	assert.NoError(t, CopyArtifacts("/dest", "/ws", nil))
}

func TestCopyArtifactsOutsideMirror(t *testing.T) {
	defer restoreFs()
	fs = afero.NewMemMapFs()

	err := CopyArtifacts("/dest", "/ws", []string{"/elsewhere/app"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the mirror")
}

func TestCopyArtifactsMissingSource(t *testing.T) {
	defer restoreFs()
	fs = afero.NewMemMapFs()

	err := CopyArtifacts("/dest", "/ws", []string{"/dest/target/debug/gone"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone")
}
