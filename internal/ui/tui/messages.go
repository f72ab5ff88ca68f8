// Package tui provides a Bubble Tea progress view for a bootstrap run.
package tui

import "github.com/imamik/k3stage/internal/provisioning"

// StageMsg reports that a stage started.
type StageMsg struct {
	Stage string
	Index int
	Total int
}

// EventMsg carries a run event.
type EventMsg struct {
	Event provisioning.Event
}

// SummaryMsg carries the final report.
type SummaryMsg struct {
	Title string
	Rows  []provisioning.SummaryRow
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the run is over. Paused is set when the run stopped
// for operator action.
type DoneMsg struct {
	Paused bool
}
