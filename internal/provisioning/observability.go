package provisioning

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Observer is the operator channel. Printf goes only to the durable log;
// banners, events and the summary are shown to the operator and logged.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// Banner announces a stage starting
	Banner(stage string, index, total int)

	// Summary prints the final report
	Summary(title string, rows []SummaryRow)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// SummaryRow is one line of the final report.
type SummaryRow struct {
	Label string
	Value string
}

// Event represents a structured run event.
type Event struct {
	Type      EventType         // Type of event
	Stage     string            // Stage name (e.g., "join", "platform")
	Message   string            // Human-readable message
	Resource  string            // Resource name if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of run event.
type EventType string

const (
	// EventStageStarted indicates a stage has started.
	EventStageStarted EventType = "stage.started"
	// EventStageCompleted indicates a stage completed successfully.
	EventStageCompleted EventType = "stage.completed"
	// EventStageFailed indicates a stage failed.
	EventStageFailed EventType = "stage.failed"
	// EventStageSkipped indicates a stage did not run.
	EventStageSkipped EventType = "stage.skipped"
	// EventStagePaused indicates a stage stopped the run for operator action.
	EventStagePaused EventType = "stage.paused"

	// EventResourceCreated indicates a resource was created or installed.
	EventResourceCreated EventType = "resource.created"
	// EventResourceExists indicates a resource already exists.
	EventResourceExists EventType = "resource.exists"

	// EventWaiting indicates a long wait is in progress.
	EventWaiting EventType = "waiting"
)

type consoleStyles struct {
	banner  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	label   lipgloss.Style
}

func newConsoleStyles() consoleStyles {
	return consoleStyles{
		banner:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		label:   lipgloss.NewStyle().Bold(true),
	}
}

// ConsoleObserver writes operator output to a terminal or stream and mirrors
// everything into a logrus logger.
type ConsoleObserver struct {
	out           io.Writer
	log           logrus.FieldLogger
	styled        bool
	styles        consoleStyles
	contextFields map[string]string
	mu            *sync.Mutex
}

// NewConsoleObserver creates an observer writing to out. Output is styled
// when out is a terminal. A nil log discards durable output.
func NewConsoleObserver(out io.Writer, log logrus.FieldLogger) *ConsoleObserver {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &ConsoleObserver{
		out:           out,
		log:           log,
		styled:        isTerminal(out),
		styles:        newConsoleStyles(),
		contextFields: make(map[string]string),
		mu:            &sync.Mutex{},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (o *ConsoleObserver) render(style lipgloss.Style, s string) string {
	if !o.styled {
		return s
	}
	return style.Render(s)
}

func (o *ConsoleObserver) println(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprintln(o.out, s)
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...any) {
	o.entry(nil).Infof(format, v...)
}

func (o *ConsoleObserver) entry(extra map[string]string) logrus.FieldLogger {
	fields := logrus.Fields{}
	for k, v := range o.contextFields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	if len(fields) == 0 {
		return o.log
	}
	return o.log.WithFields(fields)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Merge context fields
	if event.Fields == nil {
		event.Fields = make(map[string]string)
	}
	for k, v := range o.contextFields {
		if _, exists := event.Fields[k]; !exists {
			event.Fields[k] = v
		}
	}

	logFields := maps.Clone(event.Fields)
	logFields["event"] = string(event.Type)
	if event.Stage != "" {
		logFields["stage"] = event.Stage
	}
	if event.Resource != "" {
		logFields["resource"] = event.Resource
	}
	entry := o.entry(logFields)
	if event.Type == EventStageFailed {
		entry.Error(event.Message)
	} else {
		entry.Info(event.Message)
	}

	o.println(o.formatEvent(event))
}

// Banner implements Observer.
func (o *ConsoleObserver) Banner(stage string, index, total int) {
	o.entry(map[string]string{"stage": stage}).Infof("stage %d/%d", index, total)
	o.println(o.render(o.styles.banner, fmt.Sprintf("==> [%d/%d] %s", index, total, stage)))
}

// Summary implements Observer.
func (o *ConsoleObserver) Summary(title string, rows []SummaryRow) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Label))
	}

	var b strings.Builder
	b.WriteString(o.render(o.styles.banner, title))
	for _, r := range rows {
		o.entry(nil).Infof("%s: %s", r.Label, r.Value)
		b.WriteString("\n  ")
		b.WriteString(o.render(o.styles.label, fmt.Sprintf("%-*s", width+1, r.Label+":")))
		b.WriteString(" ")
		b.WriteString(r.Value)
	}
	o.println(b.String())
}

// WithFields implements Observer.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	newFields := maps.Clone(o.contextFields)
	maps.Copy(newFields, fields)

	c := *o
	c.contextFields = newFields
	return &c
}

// formatEvent formats an event for the operator.
func (o *ConsoleObserver) formatEvent(event Event) string {
	var parts []string

	marker, style := "-", o.styles.muted
	switch event.Type {
	case EventStageCompleted, EventResourceCreated:
		marker, style = "ok", o.styles.success
	case EventStageFailed:
		marker, style = "FAILED", o.styles.failure
	case EventStagePaused:
		marker, style = "PAUSED", o.styles.warning
	case EventStageSkipped, EventResourceExists:
		marker = "skip"
	case EventWaiting, EventStageStarted:
		marker = "..."
	}
	parts = append(parts, o.render(style, fmt.Sprintf("%6s", marker)))

	if event.Resource != "" {
		parts = append(parts, event.Resource+":")
	}
	parts = append(parts, event.Message)

	if len(event.Fields) > 0 {
		var fieldParts []string
		for _, k := range slices.Sorted(maps.Keys(event.Fields)) {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, event.Fields[k]))
		}
		parts = append(parts, o.render(o.styles.muted, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", "))))
	}

	return strings.Join(parts, " ")
}

// Helper functions for common events

// LogStageComplete logs a stage completion event.
func LogStageComplete(observer Observer, stage string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventStageCompleted,
		Stage:   stage,
		Message: fmt.Sprintf("%s completed in %v", stage, duration.Round(time.Millisecond)),
	})
}

// LogStageFailed logs a stage failure event.
func LogStageFailed(observer Observer, stage string, err error) {
	observer.Event(Event{
		Type:    EventStageFailed,
		Stage:   stage,
		Message: fmt.Sprintf("%s failed: %v", stage, err),
	})
}

// LogStageSkipped logs a stage that did not run.
func LogStageSkipped(observer Observer, stage, reason string) {
	observer.Event(Event{
		Type:    EventStageSkipped,
		Stage:   stage,
		Message: fmt.Sprintf("%s skipped: %s", stage, reason),
	})
}

// LogStagePaused logs a stage that stopped the run for operator action.
func LogStagePaused(observer Observer, stage string, resume *ResumeError) {
	observer.Event(Event{
		Type:    EventStagePaused,
		Stage:   stage,
		Message: fmt.Sprintf("%s: %s", resume.Reason, resume.Action),
	})
}

// LogResourceCreated logs a created or installed resource.
func LogResourceCreated(observer Observer, stage, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Stage:    stage,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s created", resourceType),
	})
}

// LogResourceExists logs a resource that was already in place.
func LogResourceExists(observer Observer, stage, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceExists,
		Stage:    stage,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s already exists", resourceType),
	})
}

// LogWaiting logs the start of a bounded wait.
func LogWaiting(observer Observer, stage, what string, timeout time.Duration) {
	limit := "no limit"
	if timeout > 0 {
		limit = timeout.String()
	}
	observer.Event(Event{
		Type:    EventWaiting,
		Stage:   stage,
		Message: fmt.Sprintf("waiting for %s", what),
		Fields:  map[string]string{"timeout": limit},
	})
}
