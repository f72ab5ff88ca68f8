package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/k3stage/internal/provisioning"
	"github.com/imamik/k3stage/internal/ui/benchmarks"
)

// maxRecent bounds the event lines kept for display.
const maxRecent = 6

// StageState is the display state of a stage.
type StageState int

// Stage states.
const (
	StagePending StageState = iota
	StageActive
	StageDone
	StageSkipped
	StagePaused
	StageFailed
)

// StageRow is one stage in the progress list.
type StageRow struct {
	Name      string
	State     StageState
	Detail    string
	StartedAt time.Time
	Duration  time.Duration
}

// ReleaseRow is one settled platform release.
type ReleaseRow struct {
	Name    string
	Outcome string
}

// Model is the Bubble Tea model of a run.
type Model struct {
	NodeName string
	Role     string

	Stages   []StageRow
	Releases []ReleaseRow
	Waiting  string
	Recent   []string

	SummaryTitle string
	Summary      []provisioning.SummaryRow

	// ETA
	EstimatedRemaining time.Duration
	PerformanceScale   float64
	StartTime          time.Time

	// Animation
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool
	Paused bool
}

// NewRunModel creates a model for a run of stages on node.
func NewRunModel(node, role string, stages []string) Model {
	rows := make([]StageRow, 0, len(stages))
	for _, s := range stages {
		rows = append(rows, StageRow{Name: s})
	}
	return Model{
		NodeName:         node,
		Role:             role,
		Stages:           rows,
		StartTime:        time.Now(),
		PerformanceScale: 1.0,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StageMsg:
		m.startStage(msg.Stage)

	case EventMsg:
		m.applyEvent(msg.Event)

	case SummaryMsg:
		m.SummaryTitle = msg.Title
		m.Summary = msg.Rows

	case TickMsg:
		m.SpinnerFrame++
		m.updateETA()
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		m.Paused = msg.Paused
		m.Waiting = ""
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) stage(name string) *StageRow {
	for i := range m.Stages {
		if m.Stages[i].Name == name {
			return &m.Stages[i]
		}
	}
	return nil
}

func (m *Model) startStage(name string) {
	row := m.stage(name)
	if row == nil {
		m.Stages = append(m.Stages, StageRow{Name: name})
		row = &m.Stages[len(m.Stages)-1]
	}
	row.State = StageActive
	row.StartedAt = time.Now()
	m.Waiting = ""
}

func (m *Model) finishStage(name string, state StageState, detail string) {
	row := m.stage(name)
	if row == nil {
		return
	}
	if row.State == StageActive {
		row.Duration = time.Since(row.StartedAt)
	}
	row.State = state
	row.Detail = detail
	m.Waiting = ""
}

func (m *Model) applyEvent(e provisioning.Event) {
	switch e.Type {
	case provisioning.EventStageCompleted:
		m.finishStage(e.Stage, StageDone, "")
	case provisioning.EventStageSkipped:
		m.finishStage(e.Stage, StageSkipped, detailOf(e))
	case provisioning.EventStagePaused:
		m.finishStage(e.Stage, StagePaused, e.Message)
	case provisioning.EventStageFailed:
		m.finishStage(e.Stage, StageFailed, detailOf(e))
	case provisioning.EventWaiting:
		m.Waiting = e.Message
	case provisioning.EventResourceCreated, provisioning.EventResourceExists:
		if e.Stage == "platform" && strings.Contains(e.Resource, "/") {
			outcome := "installed"
			if e.Type == provisioning.EventResourceExists {
				outcome = "already installed"
			}
			_, name, _ := strings.Cut(e.Resource, "/")
			m.Releases = append(m.Releases, ReleaseRow{Name: name, Outcome: outcome})
		}
	}

	line := e.Message
	if e.Resource != "" {
		line = e.Resource + ": " + line
	}
	if line != "" {
		m.Recent = append(m.Recent, line)
		if len(m.Recent) > maxRecent {
			m.Recent = m.Recent[len(m.Recent)-maxRecent:]
		}
	}
}

// detailOf strips the "<stage> skipped:" style prefix of a stage event.
func detailOf(e provisioning.Event) string {
	if _, rest, ok := strings.Cut(e.Message, ": "); ok {
		return rest
	}
	return e.Message
}

func (m *Model) updateETA() {
	var (
		current string
		elapsed time.Duration
		ahead   []string
		history []benchmarks.StageRecord
	)
	for _, row := range m.Stages {
		switch row.State {
		case StageActive:
			current = row.Name
			elapsed = time.Since(row.StartedAt)
		case StagePending:
			ahead = append(ahead, row.Name)
		case StageDone:
			history = append(history, benchmarks.StageRecord{Stage: row.Name, Duration: row.Duration})
		}
	}
	if current == "" {
		m.EstimatedRemaining = 0
		return
	}

	m.PerformanceScale = benchmarks.PerformanceScale(current, elapsed, history)
	m.EstimatedRemaining = benchmarks.EstimateRemainingWithScale(current, elapsed, ahead, m.PerformanceScale)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
