package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/margo-build/margo/cmd/util"
	"github.com/margo-build/margo/pkg/cargo"
	"github.com/margo-build/margo/pkg/check"
	"github.com/margo-build/margo/pkg/config"
	"github.com/margo-build/margo/pkg/errors"
	"github.com/margo-build/margo/pkg/mirror"
	"github.com/margo-build/margo/pkg/paths"
	"github.com/margo-build/margo/pkg/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "MARGO_LOG_VERBOSE"

const helpText = `margo %s

cargo's twin for projects stranded on a slow Windows mount under WSL2.

margo mirrors the workspace into a fast native directory, runs cargo
there, and copies the produced build artifacts back to the workspace.

Usage:
  margo <cargo arguments ...>
  margo run --run-cwd <dir> [cargo arguments ...]

Everything except --run-cwd is forwarded to cargo untouched.
Per-workspace settings live in Margo.toml at the workspace root.
`

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	var childExitCode int
	rootCmd := &cobra.Command{
		Use:          "margo",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,

		// All arguments belong to cargo; nothing is parsed as a margo flag.
		DisableFlagParsing: true,

		RunE: func(_ *cobra.Command, args []string) error {
			code, err := run(args)
			childExitCode = code
			return err
		},
	}
	rootCmd.SetHelpFunc(func(*cobra.Command, []string) {
		printBanner()
	})

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}

	// The child's exit code becomes margo's own, but only after artifact
	// repatriation has run.
	if childExitCode != 0 {
		os.Exit(childExitCode)
	}
}

// run drives the whole pipeline: configuration, path resolution, mirroring,
// the cargo invocation, and artifact repatriation, strictly in that order.
// The returned int is the child's exit code to propagate.
func run(rawArgs []string) (int, error) {
	args := cargo.ForwardedArgs(rawArgs)
	if len(args) == 0 || args[0] == "--help" {
		printBanner()
		return 0, nil
	}

	if err := check.Host(); err != nil {
		return 0, err
	}
	if err := check.Cargo(); err != nil {
		return 0, err
	}

	workspaceRoot, err := cargo.WorkspaceRoot()
	if err != nil {
		return 0, errors.WithContext(err, "locate workspace root")
	}

	cfg, err := config.Parse(workspaceRoot)
	if err != nil {
		return 0, err
	}

	destDir, err := paths.DestinationDir(cfg, workspaceRoot)
	if err != nil {
		return 0, errors.WithContext(err, "resolve destination")
	}
	log.WithField("dest", destDir).Debug("Resolved mirror root")

	runCtx, err := cargo.NewRunContext(args, cfg, workspaceRoot)
	if err != nil {
		return 0, err
	}

	entries, err := mirror.Collect(workspaceRoot, mirror.NewPatterns(cfg))
	if err != nil {
		return 0, errors.WithContext(err, "enumerate workspace")
	}

	opts := mirror.Options{Clean: cfg.Clean, CleanGit: cfg.CleanGit}
	if err := mirror.Materialize(entries, opts, workspaceRoot, destDir); err != nil {
		return 0, err
	}

	result, err := cargo.Exec(destDir, workspaceRoot, runCtx)
	if err != nil {
		return 0, err
	}

	if err := mirror.CopyArtifacts(destDir, workspaceRoot, result.Artifacts); err != nil {
		return 0, err
	}

	if result.ExitCode != nil {
		return *result.ExitCode, nil
	}
	return 0, nil
}

func printBanner() {
	fmt.Printf(helpText, version.Version)
}
