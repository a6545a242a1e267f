package check

import (
	"os/exec"
	"runtime"
	"strings"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/afero"

	"github.com/margo-build/margo/pkg/errors"
)

// osReleasePath reports the running kernel release. WSL2 kernels embed the
// string "WSL2" in it.
const osReleasePath = "/proc/sys/kernel/osrelease"

// minCargoVersion is the oldest cargo release whose JSON message stream we
// understand. The `--message-format=json-render-diagnostics` flag landed in
// the 2018 edition toolchains.
const minCargoVersion = "1.31.0"

var fs = afero.NewOsFs()

// cargoVersionOutput is overridden in tests.
var cargoVersionOutput = func() (string, error) {
	out, err := exec.Command("cargo", "--version").Output()
	return string(out), err
}

// Host verifies that margo is running inside a WSL2 environment. Mirroring a
// project onto the native filesystem only makes sense there; everywhere else
// plain cargo is the right tool.
func Host() error {
	if IsWSL2() {
		return nil
	}
	return errors.NewFriendlyError(
		"margo only works inside WSL2.\n" +
			"On any other host the project already lives on a native " +
			"filesystem, so just use cargo directly.")
}

// IsWSL2 reports whether the current host is a WSL2 environment.
func IsWSL2() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	release, err := afero.ReadFile(fs, osReleasePath)
	if err != nil {
		return false
	}
	return isWSL2Release(string(release))
}

func isWSL2Release(release string) bool {
	return strings.Contains(strings.ToLower(release), "wsl2")
}

// Cargo verifies that cargo is installed and recent enough to support the
// structured build output we rely on.
func Cargo() error {
	out, err := cargoVersionOutput()
	if err != nil {
		return errors.NewFriendlyError(
			"Failed to run `cargo --version`. Is cargo installed and on " +
				"your PATH inside WSL2?")
	}

	installed, err := parseCargoVersion(out)
	if err != nil {
		return errors.WithContext(err, "parse cargo version")
	}

	minimum := goversion.Must(goversion.NewVersion(minCargoVersion))
	if installed.LessThan(minimum) {
		return errors.NewFriendlyError(
			"Your cargo is at version %s, but margo needs at least %s "+
				"for its structured build output.", installed, minimum)
	}
	return nil
}

// parseCargoVersion extracts the release number from `cargo --version`
// output such as "cargo 1.74.1 (ecb9851af 2023-10-18)".
func parseCargoVersion(out string) (*goversion.Version, error) {
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "cargo" {
		return nil, errors.New("unexpected `cargo --version` output: " + strings.TrimSpace(out))
	}
	return goversion.NewVersion(fields[1])
}
