package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/margo-build/margo/pkg/errors"
)

// FileName is the name of the margo configuration file, looked up at the
// workspace root.
const FileName = "Margo.toml"

// parseConfigErrTemplate is a template for when the CLI fails to parse the
// configuration file. This can happen for a multitude of reasons, including
// extraneous fields and incorrect field types. However, the toml library
// constructs errors in a way that loses context, and so we can only pass the
// error message on.
const parseConfigErrTemplate = "Configuration file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the config file\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

// MargoConfig is the raw configuration document as written by the user.
// Pointer fields distinguish "absent" from "set to false", which matters for
// the deprecated/current flag precedence below.
type MargoConfig struct {
	// ProjectDir optionally overrides the project folder name in the
	// destination base directory.
	ProjectDir string `toml:"project_dir"`

	// DestBaseDir optionally sets a different destination base directory.
	// It may start with a tilde.
	DestBaseDir string `toml:"dest_base_dir"`

	// IgnoreGit is deprecated. Use IncludeGit instead.
	IgnoreGit *bool `toml:"ignore_git"`

	// IncludeGit copies the .git directory into the mirror.
	IncludeGit *bool `toml:"include_git"`

	// IgnoreTarget is deprecated. Use IncludeTarget instead.
	IgnoreTarget *bool `toml:"ignore_target"`

	// IncludeTarget copies the target directory into the mirror.
	IncludeTarget *bool `toml:"include_target"`

	// Clean removes and recreates the destination folder before copying.
	Clean bool `toml:"clean"`

	// RunCwd optionally overrides the working directory for `margo run`.
	RunCwd string `toml:"run_cwd"`
}

// Effective is the fully resolved configuration. It is computed once per
// invocation and never mutated afterwards.
type Effective struct {
	ProjectDir    string
	DestBaseDir   string
	IncludeGit    bool
	IncludeTarget bool
	Clean         bool

	// CleanGit is derived, never set by the user. It is true only when the
	// user explicitly asked for .git to be included, in which case any stale
	// .git tree in the destination is purged before the fresh copy.
	CleanGit bool

	RunCwd string
}

// Parse reads the Margo.toml at the workspace root and resolves it into the
// effective configuration. A missing file yields the all-default
// configuration; a malformed file or one with unknown keys is fatal.
func Parse(workspaceRoot string) (Effective, error) {
	path := filepath.Join(workspaceRoot, FileName)

	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Resolve(MargoConfig{}), nil
		}
		return Effective{}, errors.WithContext(err, "read config")
	}

	var raw MargoConfig
	md, err := toml.Decode(string(configBytes), &raw)
	if err != nil {
		return Effective{}, errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	// Unknown keys are almost always typos. Reject them rather than let a
	// misspelled option silently fall back to its default.
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return Effective{}, errors.NewFriendlyError(
			"Unknown configuration keys in %q: %s",
			path, strings.Join(keys, ", "))
	}

	return Resolve(raw), nil
}

// Resolve computes the effective configuration from the raw document. For
// each deprecated/current flag pair the current flag wins when both are
// present; when neither is present the subtree is excluded.
func Resolve(raw MargoConfig) Effective {
	effective := Effective{
		ProjectDir:  raw.ProjectDir,
		DestBaseDir: raw.DestBaseDir,
		Clean:       raw.Clean,
		RunCwd:      raw.RunCwd,
	}

	if raw.IgnoreGit != nil {
		log.Warn("The `ignore_git` option is deprecated. Use `include_git` instead.")
	}
	if raw.IgnoreTarget != nil {
		log.Warn("The `ignore_target` option is deprecated. Use `include_target` instead.")
	}

	switch {
	case raw.IncludeGit != nil:
		effective.IncludeGit = *raw.IncludeGit
	case raw.IgnoreGit != nil:
		effective.IncludeGit = !*raw.IgnoreGit
	}
	// A stale .git tree in the mirror confuses git once fresh objects are
	// copied on top, so an explicit git include always starts from scratch.
	effective.CleanGit = effective.IncludeGit

	switch {
	case raw.IncludeTarget != nil:
		effective.IncludeTarget = *raw.IncludeTarget
	case raw.IgnoreTarget != nil:
		effective.IncludeTarget = !*raw.IgnoreTarget
	}

	return effective
}
