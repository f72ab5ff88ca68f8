package testing

import (
	"context"
	"strings"
	"sync"

	"github.com/imamik/k3stage/internal/platform/shell"
)

// Response is one scripted answer of a FakeRunner rule.
type Response struct {
	Output string
	Err    error
}

type rule struct {
	match     string
	responses []Response
}

// FakeRunner is a shell.Runner that records commands and answers them from
// scripted rules. Commands that match no rule succeed with empty output.
type FakeRunner struct {
	mu       sync.Mutex
	rules    []*rule
	commands []shell.Command
}

var _ shell.Runner = (*FakeRunner)(nil)

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On answers commands whose line contains match. Later rules win.
func (f *FakeRunner) On(match, output string, err error) *FakeRunner {
	return f.OnSequence(match, Response{Output: output, Err: err})
}

// OnFail answers matching commands with a non-zero exit.
func (f *FakeRunner) OnFail(match string, exitCode int, output string) *FakeRunner {
	return f.On(match, output, &shell.CommandError{Command: match, ExitCode: exitCode, Output: output})
}

// OnSequence answers successive matching commands with responses in order.
// The last response repeats once the others are used up.
func (f *FakeRunner) OnSequence(match string, responses ...Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &rule{match: match, responses: responses})
	return f
}

// Run implements shell.Runner.
func (f *FakeRunner) Run(ctx context.Context, cmd shell.Command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)

	line := Line(cmd)
	for i := len(f.rules) - 1; i >= 0; i-- {
		r := f.rules[i]
		if !strings.Contains(line, r.match) || len(r.responses) == 0 {
			continue
		}
		resp := r.responses[0]
		if len(r.responses) > 1 {
			r.responses = r.responses[1:]
		}
		return resp.Output, resp.Err
	}
	return "", nil
}

// Commands returns every command run so far.
func (f *FakeRunner) Commands() []shell.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shell.Command(nil), f.commands...)
}

// Lines returns the unmasked command lines run so far.
func (f *FakeRunner) Lines() []string {
	cmds := f.Commands()
	lines := make([]string, len(cmds))
	for i, c := range cmds {
		lines[i] = Line(c)
	}
	return lines
}

// Ran reports whether any command line contained match.
func (f *FakeRunner) Ran(match string) bool {
	for _, l := range f.Lines() {
		if strings.Contains(l, match) {
			return true
		}
	}
	return false
}

// Find returns the first command whose line contains match.
func (f *FakeRunner) Find(match string) (shell.Command, bool) {
	for _, c := range f.Commands() {
		if strings.Contains(Line(c), match) {
			return c, true
		}
	}
	return shell.Command{}, false
}

// Line renders cmd as "name arg1 arg2" without quoting or masking.
func Line(cmd shell.Command) string {
	return strings.TrimSpace(cmd.Name + " " + strings.Join(cmd.Args, " "))
}
