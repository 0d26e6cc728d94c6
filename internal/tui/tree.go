package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/claudeck/claudeck/internal/state"
	"github.com/claudeck/claudeck/internal/tui/styles"
	"github.com/claudeck/claudeck/internal/util"
)

// renderTaskPane renders the left pane: either the task tree or the
// Gantt bars, with the cursor row highlighted and scrolled into view.
func (m Model) renderTaskPane(width, height int) string {
	inner := width - 4 // border + padding
	if inner < 10 {
		inner = 10
	}
	innerHeight := height - 2
	if innerHeight < 1 {
		innerHeight = 1
	}

	lines := make([]string, 0, len(m.rows))
	for i, r := range m.rows {
		var line string
		switch r.kind {
		case rowPhase:
			line = m.renderPhaseRow(r, inner)
		case rowTask:
			line = m.renderTaskRow(r, inner)
		}
		if i == m.cursor {
			line = styles.SelectedRow.Render(line)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = []string{styles.Muted.Render("no tasks — waiting for " + m.paths.TasksPath)}
	}

	// Keep the cursor visible.
	start := 0
	if m.cursor >= innerHeight {
		start = m.cursor - innerHeight + 1
	}
	end := start + innerHeight
	if end > len(lines) {
		end = len(lines)
	}
	body := strings.Join(lines[start:end], "\n")

	return styles.PanelBorderFocused.Width(width - 2).Height(height - 2).Render(body)
}

func (m Model) renderPhaseRow(r row, width int) string {
	ph := &m.snap.Phases[r.phaseIdx]

	marker := "▾"
	if ph.Collapsed {
		marker = "▸"
	}
	bar := progressBar(ph.Progress, 10)
	label := fmt.Sprintf("%s %s %s", marker, ph.ID, ph.Name)
	line := fmt.Sprintf("%s %s %3.0f%%", util.PadRight(util.TruncateString(label, width-18), width-18), bar, ph.Progress*100)
	return util.TruncateANSI(styles.PhaseHeader.Render(line), width)
}

func (m Model) renderTaskRow(r row, width int) string {
	t := m.taskAt(r)
	glyph := lipgloss.NewStyle().Foreground(styles.StatusColor(t.Status)).Render(styles.StatusGlyph(t.Status))

	if m.mode == viewGantt {
		return m.renderGanttRow(t, glyph, width)
	}

	label := fmt.Sprintf("  %s %s: %s", glyph, t.ID, t.Name)
	var suffix string
	if t.Agent != "" {
		suffix = styles.Muted.Render(" @" + t.Agent)
	}
	if len(t.BlockedBy) > 0 {
		suffix += styles.Warning.Render(fmt.Sprintf(" ⧗%d", len(t.BlockedBy)))
	}
	return util.TruncateANSI(label, width-lipgloss.Width(suffix)) + suffix
}

// renderGanttRow shows each task as a bar positioned by its observed
// start/completion times relative to the session window.
func (m Model) renderGanttRow(t *state.TaskView, glyph string, width int) string {
	const barWidth = 24
	label := util.TruncateANSI(fmt.Sprintf("  %s %s", glyph, t.ID), width-barWidth-2)

	window := m.now.Sub(m.snap.Metrics.StartedAt)
	if window <= 0 {
		window = 1
	}
	bar := make([]rune, barWidth)
	for i := range bar {
		bar[i] = '·'
	}
	if !t.StartedAt.IsZero() {
		startFrac := float64(t.StartedAt.Sub(m.snap.Metrics.StartedAt)) / float64(window)
		endFrac := 1.0
		if !t.CompletedAt.IsZero() {
			endFrac = float64(t.CompletedAt.Sub(m.snap.Metrics.StartedAt)) / float64(window)
		}
		from := clampInt(int(startFrac*barWidth), 0, barWidth-1)
		to := clampInt(int(endFrac*barWidth), from+1, barWidth)
		for i := from; i < to; i++ {
			bar[i] = '█'
		}
	}
	styledBar := lipgloss.NewStyle().Foreground(styles.StatusColor(t.Status)).Render(string(bar))
	return fmt.Sprintf("%s %s", util.PadRight(label, width-barWidth-1), styledBar)
}

// progressBar renders a fixed-width unicode progress bar.
func progressBar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(width) + 0.5)
	return styles.Secondary.Render(strings.Repeat("█", filled)) +
		styles.Muted.Render(strings.Repeat("░", width-filled))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
