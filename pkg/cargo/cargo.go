package cargo

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/margo-build/margo/pkg/errors"
)

// jsonMessageFlag asks cargo for machine-readable, streamed build progress
// while still rendering compiler diagnostics for the user.
const jsonMessageFlag = "--message-format=json-render-diagnostics"

// Result is what a cargo invocation produced.
type Result struct {
	// Artifacts are absolute paths inside the mirror, only ever populated by
	// the build subcommand.
	Artifacts []string

	// ExitCode is the child's exit code, or nil when no subcommand was
	// given. A non-zero code is not an error here; the caller propagates it
	// as margo's own exit status after artifact repatriation.
	ExitCode *int
}

// Exec maps the caller's position inside the workspace onto the mirror and
// runs cargo there. The build subcommand switches to streamed JSON output to
// harvest produced artifacts; the run subcommand with a run-cwd override
// executes from that directory with an explicit manifest reference;
// everything else passes through untouched.
func Exec(destDir, workspaceRoot string, ctx RunContext) (Result, error) {
	if len(ctx.Args) == 0 {
		return Result{}, nil
	}

	execDir, err := executionDir(destDir, workspaceRoot)
	if err != nil {
		return Result{}, err
	}

	switch {
	case ctx.Subcommand == SubcommandBuild:
		return execBuild(execDir, ctx.Args)
	case ctx.Subcommand == SubcommandRun && ctx.RunCwd != "":
		return execRun(execDir, destDir, ctx)
	default:
		return execPassthrough(execDir, ctx.Args)
	}
}

// executionDir gives cargo the same relative vantage point inside the mirror
// that the caller had inside the workspace.
func executionDir(destDir, workspaceRoot string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WithContext(err, "get working directory")
	}
	cwd, err = filepath.EvalSymlinks(cwd)
	if err != nil {
		return "", errors.WithContext(err, "canonicalize working directory")
	}

	relPath, err := filepath.Rel(workspaceRoot, cwd)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return "", errors.NewFriendlyError(
			"The current directory %q is not inside the workspace %q.",
			cwd, workspaceRoot)
	}

	execDir, err := filepath.EvalSymlinks(filepath.Join(destDir, relPath))
	if err != nil {
		return "", errors.WithContext(err, "resolve execution directory in mirror")
	}
	return execDir, nil
}

func execBuild(execDir string, args []string) (Result, error) {
	args = insertAfterSubcommand(args, jsonMessageFlag)

	cmd := exec.Command(cargoCommand, args...)
	cmd.Dir = execDir
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, errors.WithContext(err, "pipe cargo stdout")
	}
	if err := cmd.Start(); err != nil {
		return Result{}, errors.WithContext(err, "start cargo")
	}

	// Consume the message stream while the build is still running.
	artifacts := collectArtifacts(stdout)

	exitCode, err := wait(cmd)
	if err != nil {
		return Result{}, err
	}
	return Result{Artifacts: artifacts, ExitCode: exitCode}, nil
}

func execRun(execDir, destDir string, ctx RunContext) (Result, error) {
	manifestPath, ok := findManifest(execDir, destDir)
	if !ok {
		return Result{}, errors.NewFriendlyError(
			"No %s found between %q and the mirror root; %s needs a "+
				"project to point cargo at.", manifestName, execDir, runCwdFlag)
	}

	args := insertAfterSubcommand(ctx.Args, manifestPathFlag, manifestPath)

	cmd := exec.Command(cargoCommand, args...)
	cmd.Dir = ctx.RunCwd
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return Result{}, errors.WithContext(err, "start cargo")
	}
	exitCode, err := wait(cmd)
	if err != nil {
		return Result{}, err
	}
	return Result{ExitCode: exitCode}, nil
}

func execPassthrough(execDir string, args []string) (Result, error) {
	cmd := exec.Command(cargoCommand, args...)
	cmd.Dir = execDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return Result{}, errors.WithContext(err, "start cargo")
	}
	exitCode, err := wait(cmd)
	if err != nil {
		return Result{}, err
	}
	return Result{ExitCode: exitCode}, nil
}

// insertAfterSubcommand splices extra arguments in directly after the
// subcommand, before any user-supplied flags.
func insertAfterSubcommand(args []string, extra ...string) []string {
	out := make([]string, 0, len(args)+len(extra))
	out = append(out, args[0])
	out = append(out, extra...)
	out = append(out, args[1:]...)
	return out
}

// wait reaps the child. A non-zero exit is reported through the code, not as
// an error; only failures to run the child at all are errors.
func wait(cmd *exec.Cmd) (*int, error) {
	err := cmd.Wait()
	if err == nil {
		code := 0
		return &code, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
		return &code, nil
	}
	return nil, errors.WithContext(err, "wait for cargo")
}
