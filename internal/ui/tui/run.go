package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/k3stage/internal/provisioning"
)

// RunFunc executes the run, reporting through observer.
type RunFunc func(ctx context.Context, observer provisioning.Observer) error

// Run wraps run with a Bubble Tea progress view. next receives every
// observer call as well. Quitting the view cancels the run; the run's own
// error is returned in every case.
func Run(ctx context.Context, m Model, next provisioning.Observer, run RunFunc, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(m, opts...)
	result := make(chan error, 1)

	go func() {
		err := run(ctx, NewObserver(next, p.Send))
		result <- err
		switch {
		case err == nil:
			p.Send(DoneMsg{})
		case errors.Is(err, provisioning.ErrResume):
			p.Send(DoneMsg{Paused: true})
		default:
			p.Send(ErrMsg{Err: err})
		}
	}()

	_, uiErr := p.Run()
	cancel()
	runErr := <-result

	if runErr != nil {
		return runErr
	}
	if uiErr != nil {
		return fmt.Errorf("TUI error: %w", uiErr)
	}
	return nil
}
