package cli

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// supportsWatchUI reports whether the TERM value can drive the full-screen UI.
func supportsWatchUI(termEnv string) bool {
	t := strings.TrimSpace(strings.ToLower(termEnv))
	return t != "" && t != "dumb"
}

func isInteractiveTerminal() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout) && supportsWatchUI(os.Getenv("TERM"))
}

func shouldUseWatchUI(isTTY, noUI bool) bool {
	return isTTY && !noUI
}
