package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/margo-build/margo/pkg/errors"
)

// HandleFatalError prints the user-facing message for err and exits with a
// non-zero status. Fatal errors abort the whole run; nothing is retried.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	os.Exit(1)
}

// HandlePanic recovers from panics in the main goroutine so that we can exit
// with a readable message rather than a raw stack dump on stdout.
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "margo crashed: %v\n\n%s", r, debug.Stack())
	os.Exit(1)
}
