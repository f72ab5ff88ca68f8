package k3s

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/k3stage/internal/platform/ssh"
	"github.com/imamik/k3stage/internal/util/retry"
)

// ErrEmptyToken is returned when the token file exists but holds nothing.
var ErrEmptyToken = errors.New("join token is empty")

// ErrSudoDenied is returned when non-interactive sudo on the initializer
// asks for a password.
var ErrSudoDenied = errors.New("sudo on the initializer requires a password")

// sudoRefusals are the messages sudo -n prints when it cannot proceed.
var sudoRefusals = []string{
	"a password is required",
	"a terminal is required",
	"is not in the sudoers file",
	"may not run sudo",
}

// RemoteExecutor runs a command on another node.
type RemoteExecutor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// Logger receives progress lines. *logrus.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenFetcher waits for the initializer's join token and reads it once.
type TokenFetcher struct {
	Remote RemoteExecutor
	// Path defaults to ServerTokenPath.
	Path string
	// Sudo prefixes remote commands with non-interactive sudo.
	Sudo   bool
	Policy retry.PollPolicy
	Log    Logger
}

// Fetch polls until the token file is non-empty, then reads it.
func (f *TokenFetcher) Fetch(ctx context.Context) (string, error) {
	path := f.Path
	if path == "" {
		path = ServerTokenPath
	}

	check := f.wrap(fmt.Sprintf("test -s %s && echo present || echo absent", path))
	attempt := 0
	err := retry.Poll(ctx, f.Policy, func(ctx context.Context) (bool, error) {
		attempt++
		out, err := f.Remote.Execute(ctx, check)
		if err != nil {
			if errors.Is(err, ssh.ErrAuthentication) {
				return false, retry.Fatal(err)
			}
			if f.sudoRefused(out, err) {
				return false, retry.Fatal(fmt.Errorf("%w: %v", ErrSudoDenied, err))
			}
			f.logf("token check %d: initializer unreachable: %v", attempt, err)
			return false, err
		}
		present := strings.TrimSpace(out) == "present"
		if !present {
			f.logf("token check %d: %s not present yet", attempt, path)
		}
		return present, nil
	})
	if err != nil {
		return "", fmt.Errorf("waiting for join token at %s: %w", path, err)
	}

	out, err := f.Remote.Execute(ctx, f.wrap("cat "+path))
	if err != nil {
		if f.sudoRefused(out, err) {
			return "", fmt.Errorf("failed to read join token: %w: %v", ErrSudoDenied, err)
		}
		return "", fmt.Errorf("failed to read join token: %w", err)
	}
	token := strings.TrimSpace(out)
	if token == "" {
		return "", ErrEmptyToken
	}
	f.logf("join token retrieved after %d checks", attempt)
	return token, nil
}

func (f *TokenFetcher) wrap(cmd string) string {
	if !f.Sudo {
		return cmd
	}
	return fmt.Sprintf("sudo -n sh -c %q", cmd)
}

func (f *TokenFetcher) sudoRefused(out string, err error) bool {
	if !f.Sudo {
		return false
	}
	text := out + "\n" + err.Error()
	if !strings.Contains(text, "sudo:") {
		return false
	}
	for _, msg := range sudoRefusals {
		if strings.Contains(text, msg) {
			return true
		}
	}
	return false
}

func (f *TokenFetcher) logf(format string, args ...any) {
	if f.Log != nil {
		f.Log.Printf(format, args...)
	}
}
