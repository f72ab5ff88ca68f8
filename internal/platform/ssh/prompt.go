package ssh

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrNoTerminal is returned by TerminalPrompt when stdin is not a terminal.
var ErrNoTerminal = errors.New("no terminal available for password entry")

// TerminalPrompt reads a password from the controlling terminal without
// echoing it. The prompt is written to out.
func TerminalPrompt(user, host string, out io.Writer) PasswordPrompt {
	return func() (string, error) {
		fd := int(os.Stdin.Fd()) //nolint:gosec // fd fits in int
		if !term.IsTerminal(fd) {
			return "", ErrNoTerminal
		}
		_, _ = fmt.Fprintf(out, "%s@%s's password: ", user, host)
		pw, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}
}

// StaticPassword returns a prompt that always answers pw.
func StaticPassword(pw string) PasswordPrompt {
	return func() (string, error) { return pw, nil }
}
