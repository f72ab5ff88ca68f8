// Package shell runs local commands for the bootstrap stages.
//
// Every stage that touches the host (package installs, NetworkManager,
// systemd, the K3s installer) goes through a [Runner] so the exact command
// line can be asserted in tests. Output is captured for the caller and
// streamed to the durable log.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Command is a single process invocation.
type Command struct {
	Name string
	Args []string
	Env  map[string]string
}

// Cmd builds a Command from a program name and arguments.
func Cmd(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// Script builds a Command that runs script through sh -c.
func Script(script string) Command {
	return Command{Name: "sh", Args: []string{"-c", script}}
}

// WithEnv returns a copy of c with an extra environment variable.
func (c Command) WithEnv(key, value string) Command {
	env := make(map[string]string, len(c.Env)+1)
	for k, v := range c.Env {
		env[k] = v
	}
	env[key] = value
	c.Env = env
	return c
}

// String renders the command for logs. Values of secret-looking variables are
// masked.
func (c Command) String() string {
	var parts []string
	for _, k := range c.envKeys() {
		v := c.Env[k]
		if isSecretKey(k) {
			v = "***"
		}
		parts = append(parts, k+"="+v)
	}
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if strings.ContainsAny(a, " \t|&;") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func (c Command) envKeys() []string {
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isSecretKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, marker := range []string{"TOKEN", "PASSWORD", "SECRET"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// Runner executes commands.
type Runner interface {
	// Run executes cmd and returns its combined output. A non-zero exit is
	// reported as *CommandError.
	Run(ctx context.Context, cmd Command) (string, error)
}

// CommandError reports a command that could not run or exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit code of the first CommandError in err's chain.
func ExitCode(err error) (int, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode, true
	}
	return 0, false
}

// LocalRunner runs commands on this host.
type LocalRunner struct {
	log io.Writer
}

// NewLocalRunner creates a runner that also copies all output to log.
// A nil log discards it.
func NewLocalRunner(log io.Writer) *LocalRunner {
	if log == nil {
		log = io.Discard
	}
	return &LocalRunner{log: log}
}

// Run implements Runner.
func (r *LocalRunner) Run(ctx context.Context, cmd Command) (string, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Env = os.Environ()
	for _, k := range cmd.envKeys() {
		c.Env = append(c.Env, k+"="+cmd.Env[k])
	}

	var out bytes.Buffer
	w := io.MultiWriter(&out, r.log)
	c.Stdout = w
	c.Stderr = w

	_, _ = fmt.Fprintf(r.log, "$ %s\n", cmd)
	if err := c.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return out.String(), &CommandError{
			Command:  cmd.String(),
			ExitCode: code,
			Output:   out.String(),
			Err:      err,
		}
	}
	return out.String(), nil
}
