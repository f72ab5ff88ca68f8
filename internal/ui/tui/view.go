package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)
	renderStages(&b, m)

	if len(m.Releases) > 0 {
		renderReleases(&b, m)
	}
	if len(m.Summary) > 0 {
		renderSummary(&b, m)
	} else if len(m.Recent) > 0 {
		renderRecent(&b, m)
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("k3stage: %s", m.NodeName)
	if m.Role != "" {
		title += fmt.Sprintf(" (%s)", m.Role)
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Paused:
		status += warningStyle.Render("Paused")
	case m.Done:
		status += readyStyle.Render("Complete")
	case m.Waiting != "":
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + warningStyle.Render(m.Waiting)
	default:
		status += dimStyle.Render("Running...")
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := calculateProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = max(m.Width-30, 10)
	}
	filled := min(int(float64(barWidth)*progress), barWidth)

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	pct := int(progress * 100)
	eta := ""
	if m.EstimatedRemaining > 0 {
		eta = fmt.Sprintf(" ETA %s", formatDuration(m.EstimatedRemaining))
	}
	if m.PerformanceScale != 0 && m.PerformanceScale != 1.0 {
		eta += fmt.Sprintf("  speed x%.2f", m.PerformanceScale)
	}

	fmt.Fprintf(b, "  %s %d%%%s\n", bar, pct, eta)
}

func renderStages(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Stages"))
	b.WriteString("\n")

	for _, row := range m.Stages {
		icon, style := stageIcon(row.State, m.SpinnerFrame)
		extra := ""
		switch row.State {
		case StageActive:
			extra = formatDuration(time.Since(row.StartedAt))
		case StageDone:
			extra = formatDuration(row.Duration)
		case StageSkipped, StagePaused, StageFailed:
			extra = row.Detail
		}
		fmt.Fprintf(b, "    %s %-12s %s\n", style(icon), style(row.Name), dimStyle.Render(extra))
	}
}

func renderReleases(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Platform"))
	b.WriteString("\n")

	for _, r := range m.Releases {
		fmt.Fprintf(b, "    %s %-14s %s\n", readyStyle.Render(checkMark), r.Name, dimStyle.Render(r.Outcome))
	}
}

func renderRecent(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Recent"))
	b.WriteString("\n")

	for _, line := range m.Recent {
		fmt.Fprintf(b, "    %s\n", dimStyle.Render(line))
	}
}

func renderSummary(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  " + m.SummaryTitle))
	b.WriteString("\n")

	width := 0
	for _, r := range m.Summary {
		width = max(width, len(r.Label))
	}
	for _, r := range m.Summary {
		fmt.Fprintf(b, "    %-*s %s\n", width+1, r.Label+":", r.Value)
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed: %s  |  q: quit", elapsed)))
	b.WriteString("\n")
}

// Helper functions

func stageIcon(state StageState, frame int) (string, styleFunc) {
	switch state {
	case StageDone:
		return checkMark, sf(readyStyle)
	case StageFailed:
		return crossMark, sf(failedStyle)
	case StagePaused:
		return pauseMark, sf(warningStyle)
	case StageSkipped:
		return skipMark, sf(dimStyle)
	case StageActive:
		return currentSpinner(frame), sf(activeStyle)
	default:
		return pending, sf(dimStyle)
	}
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

// calculateProgress is the share of stages that are settled.
func calculateProgress(m Model) float64 {
	if m.Done && !m.Paused && m.Err == nil {
		return 1.0
	}
	if len(m.Stages) == 0 {
		return 0
	}
	settled := 0
	for _, row := range m.Stages {
		if row.State == StageDone || row.State == StageSkipped {
			settled++
		}
	}
	return float64(settled) / float64(len(m.Stages))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
