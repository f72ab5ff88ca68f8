package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/k3stage/internal/provisioning"
)

// Observer forwards run output to a Bubble Tea program. Every call is also
// passed to next, which keeps the durable log complete.
type Observer struct {
	next provisioning.Observer
	send func(tea.Msg)
}

var _ provisioning.Observer = (*Observer)(nil)

// NewObserver creates an observer sending messages through send.
func NewObserver(next provisioning.Observer, send func(tea.Msg)) *Observer {
	return &Observer{next: next, send: send}
}

// Printf implements provisioning.Logger.
func (o *Observer) Printf(format string, v ...any) {
	o.next.Printf(format, v...)
}

// Event implements provisioning.Observer.
func (o *Observer) Event(event provisioning.Event) {
	o.next.Event(event)
	o.send(EventMsg{Event: event})
}

// Banner implements provisioning.Observer.
func (o *Observer) Banner(stage string, index, total int) {
	o.next.Banner(stage, index, total)
	o.send(StageMsg{Stage: stage, Index: index, Total: total})
}

// Summary implements provisioning.Observer.
func (o *Observer) Summary(title string, rows []provisioning.SummaryRow) {
	o.next.Summary(title, rows)
	o.send(SummaryMsg{Title: title, Rows: rows})
}

// WithFields implements provisioning.Observer.
func (o *Observer) WithFields(fields map[string]string) provisioning.Observer {
	return &Observer{next: o.next.WithFields(fields), send: o.send}
}
