package cargo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/margo-build/margo/pkg/config"
	"github.com/margo-build/margo/pkg/errors"
	"github.com/margo-build/margo/pkg/paths"
)

// Source identifies where a run-cwd override came from.
type Source string

const (
	SourceCLI    Source = "cli"
	SourceConfig Source = "config"
	SourceNone   Source = "none"
)

// Subcommand classifies the first forwarded cargo argument.
type Subcommand int

const (
	SubcommandOther Subcommand = iota
	SubcommandBuild
	SubcommandRun
)

const (
	runCwdFlag       = "--run-cwd"
	manifestPathFlag = "--manifest-path"
)

// skippables are leading argv entries dropped so that margo behaves the same
// whether it's invoked directly or as a cargo external subcommand
// (`cargo margo ...`).
var skippables = map[string]bool{
	"margo":       true,
	"cargo-margo": true,
	"cargo":       true,
}

// RunContext is everything Exec needs to know about the invocation: the
// arguments to forward to cargo, the resolved run-cwd override (with its
// provenance), and the subcommand classification.
type RunContext struct {
	Args         []string
	Subcommand   Subcommand
	RunCwd       string
	RunCwdSource Source
}

// ForwardedArgs strips the leading program and subcommand names from argv.
// Comparison is by basename so full invocation paths are recognized too.
func ForwardedArgs(argv []string) []string {
	i := 0
	for ; i < len(argv); i++ {
		if !skippables[filepath.Base(argv[i])] {
			break
		}
	}
	return argv[i:]
}

// NewRunContext builds the RunContext from the forwarded arguments and the
// effective configuration. A run-cwd given on the command line wins over one
// from the config file. A CLI-supplied run-cwd on a non-run subcommand is an
// error; a config-supplied one is silently dropped. Combining run-cwd with
// an explicit --manifest-path is always a fatal conflict.
func NewRunContext(args []string, cfg config.Effective, workspaceRoot string) (RunContext, error) {
	filtered, cliRunCwd, err := extractRunCwd(args)
	if err != nil {
		return RunContext{}, err
	}

	ctx := RunContext{
		Args:         filtered,
		Subcommand:   classify(filtered),
		RunCwdSource: SourceNone,
	}

	switch {
	case cliRunCwd != "":
		baseDir, err := os.Getwd()
		if err != nil {
			return RunContext{}, errors.WithContext(err, "get working directory")
		}
		resolved, err := paths.ResolveRunCwd(cliRunCwd, baseDir, runCwdFlag)
		if err != nil {
			return RunContext{}, err
		}
		ctx.RunCwd, ctx.RunCwdSource = resolved, SourceCLI
	case cfg.RunCwd != "":
		resolved, err := paths.ResolveRunCwd(cfg.RunCwd, workspaceRoot, "Margo.toml run_cwd")
		if err != nil {
			return RunContext{}, err
		}
		ctx.RunCwd, ctx.RunCwdSource = resolved, SourceConfig
	}

	if ctx.RunCwd != "" {
		if ctx.Subcommand != SubcommandRun {
			if ctx.RunCwdSource == SourceCLI {
				return RunContext{}, errors.NewFriendlyError(
					"%s can only be used with `run`.", runCwdFlag)
			}
			ctx.RunCwd, ctx.RunCwdSource = "", SourceNone
		} else if hasManifestPath(filtered) {
			return RunContext{}, errors.NewFriendlyError(
				"%s cannot be combined with cargo's %s.",
				runCwdFlag, manifestPathFlag)
		}
	}

	return ctx, nil
}

// extractRunCwd removes the run-cwd flag (in either its two-argument or
// `=`-joined form) from the argument list.
func extractRunCwd(args []string) (filtered []string, runCwd string, err error) {
	filtered = make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == runCwdFlag {
			i++
			if i >= len(args) {
				return nil, "", errors.NewFriendlyError(
					"%s expects a directory path.", runCwdFlag)
			}
			runCwd = args[i]
			continue
		}

		if value := strings.TrimPrefix(arg, runCwdFlag+"="); value != arg {
			if value == "" {
				return nil, "", errors.NewFriendlyError(
					"%s expects a directory path.", runCwdFlag)
			}
			runCwd = value
			continue
		}

		filtered = append(filtered, arg)
	}

	return filtered, runCwd, nil
}

func classify(args []string) Subcommand {
	if len(args) == 0 {
		return SubcommandOther
	}
	switch args[0] {
	case "b", "build":
		return SubcommandBuild
	case "r", "run":
		return SubcommandRun
	default:
		return SubcommandOther
	}
}

func hasManifestPath(args []string) bool {
	for _, arg := range args {
		if arg == manifestPathFlag || strings.HasPrefix(arg, manifestPathFlag+"=") {
			return true
		}
	}
	return false
}
