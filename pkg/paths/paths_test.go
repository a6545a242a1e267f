package paths

import (
	"os"
	"path/filepath"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margo-build/margo/pkg/config"
)

func TestDestinationDir(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)

	tests := []struct {
		name          string
		cfg           config.Effective
		workspaceRoot string
		exp           string
	}{
		{
			name:          "Defaults",
			cfg:           config.Effective{},
			workspaceRoot: "/mnt/c/code/my-project",
			exp:           filepath.Join(home, "tmp", "my-project"),
		},
		{
			name:          "ProjectDirOverride",
			cfg:           config.Effective{ProjectDir: "renamed"},
			workspaceRoot: "/mnt/c/code/my-project",
			exp:           filepath.Join(home, "tmp", "renamed"),
		},
		{
			name:          "ExplicitBaseDir",
			cfg:           config.Effective{DestBaseDir: "/fast/builds"},
			workspaceRoot: "/mnt/c/code/my-project",
			exp:           "/fast/builds/my-project",
		},
		{
			name:          "TildeBaseDir",
			cfg:           config.Effective{DestBaseDir: "~/builds"},
			workspaceRoot: "/mnt/c/code/my-project",
			exp:           filepath.Join(home, "builds", "my-project"),
		},
		{
			name:          "Normalized",
			cfg:           config.Effective{DestBaseDir: "/fast//builds/../builds"},
			workspaceRoot: "/mnt/c/code/my-project",
			exp:           "/fast/builds/my-project",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			dest, err := DestinationDir(test.cfg, test.workspaceRoot)
			require.NoError(t, err)
			assert.Equal(t, test.exp, dest)
		})
	}
}

func TestResolveRunCwd(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "scripts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "file.txt"), []byte("x"), 0644))

	// The temp dir may itself live behind a symlink (e.g. /tmp on macOS), so
	// compare against its canonical form.
	canonicalBase, err := filepath.EvalSymlinks(base)
	require.NoError(t, err)

	t.Run("None", func(t *testing.T) {
		resolved, err := ResolveRunCwd("", base, "--run-cwd")
		require.NoError(t, err)
		assert.Empty(t, resolved)
	})

	t.Run("Relative", func(t *testing.T) {
		resolved, err := ResolveRunCwd("scripts", base, "--run-cwd")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(canonicalBase, "scripts"), resolved)
	})

	t.Run("Absolute", func(t *testing.T) {
		resolved, err := ResolveRunCwd(filepath.Join(base, "scripts"), "/elsewhere", "--run-cwd")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(canonicalBase, "scripts"), resolved)
	})

	t.Run("DoesNotExist", func(t *testing.T) {
		_, err := ResolveRunCwd("missing", base, "--run-cwd")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--run-cwd")
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("NotADirectory", func(t *testing.T) {
		_, err := ResolveRunCwd("file.txt", base, "Margo.toml run_cwd")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Margo.toml run_cwd")
		assert.Contains(t, err.Error(), "not a directory")
	})
}
