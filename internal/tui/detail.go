package tui

import (
	"fmt"
	"strings"

	"github.com/claudeck/claudeck/internal/classify"
	"github.com/claudeck/claudeck/internal/plan"
	"github.com/claudeck/claudeck/internal/state"
	"github.com/claudeck/claudeck/internal/tui/styles"
	"github.com/claudeck/claudeck/internal/util"
)

// renderDetailPane renders the selected task's detail, or session
// metrics when a phase row is selected.
func (m Model) renderDetailPane(width, height int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder
	if task := m.selectedTask(); task != nil {
		m.writeTaskDetail(&b, task, inner)
	} else {
		m.writeSessionDetail(&b)
	}

	return styles.PanelBorder.Width(width - 2).Height(height - 2).Render(
		clipLines(b.String(), height-2))
}

func (m Model) writeTaskDetail(b *strings.Builder, task *state.TaskView, width int) {
	b.WriteString(styles.Title.Render(task.ID))
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(util.TruncateString(task.Name, width-len(task.ID)-1)))
	b.WriteString("\n\n")

	statusStyle := styles.Text.Foreground(styles.StatusColor(task.Status))
	fmt.Fprintf(b, "status   %s\n", statusStyle.Render(statusLabel(task.Status)))
	if task.Agent != "" {
		fmt.Fprintf(b, "agent    @%s\n", task.Agent)
	}
	if len(task.BlockedBy) > 0 {
		fmt.Fprintf(b, "blocked  %s\n", strings.Join(task.BlockedBy, ", "))
	}
	if !task.StartedAt.IsZero() {
		fmt.Fprintf(b, "started  %s\n", task.StartedAt.Format("15:04:05"))
	}
	if !task.CompletedAt.IsZero() {
		fmt.Fprintf(b, "finished %s\n", task.CompletedAt.Format("15:04:05"))
	}

	if task.ErrorExcerpt != "" {
		analysis := classify.Analyze(task.ErrorExcerpt)
		b.WriteString("\n")
		b.WriteString(styles.Error.Render("error: "))
		b.WriteString(util.TruncateString(task.ErrorExcerpt, width-7))
		b.WriteString("\n")
		fmt.Fprintf(b, "%s", styles.Muted.Render(fmt.Sprintf("category %s", analysis.Category)))
		if analysis.Retryable {
			b.WriteString(styles.Muted.Render(" · retryable"))
		} else {
			b.WriteString(styles.Warning.Render(" · no retry"))
		}
		if analysis.Hint != "" {
			b.WriteString("\n")
			b.WriteString(styles.Muted.Render(analysis.Hint))
		}
		b.WriteString("\n")
	}

	if body := strings.TrimSpace(task.Body); body != "" {
		b.WriteString("\n")
		for i, line := range strings.Split(body, "\n") {
			if i >= 6 {
				b.WriteString(styles.Muted.Render("…"))
				b.WriteString("\n")
				break
			}
			b.WriteString(styles.Muted.Render(util.TruncateString(line, width)))
			b.WriteString("\n")
		}
	}
}

func (m Model) writeSessionDetail(b *strings.Builder) {
	metrics := m.snap.Metrics
	b.WriteString(styles.Title.Render("Session"))
	b.WriteString("\n\n")
	fmt.Fprintf(b, "total      %d\n", metrics.TotalTasks)
	fmt.Fprintf(b, "completed  %s\n", styles.Secondary.Render(fmt.Sprintf("%d", metrics.Completed)))
	fmt.Fprintf(b, "running    %d\n", metrics.InProgress)
	fmt.Fprintf(b, "failed     %s\n", styles.Error.Render(fmt.Sprintf("%d", metrics.Failed)))
	fmt.Fprintf(b, "blocked    %d\n", metrics.Blocked)
	fmt.Fprintf(b, "pending    %d\n", metrics.Pending)

	if len(m.snap.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.Warning.Render("warnings"))
		b.WriteString("\n")
		for i, w := range m.snap.Warnings {
			if i >= 4 {
				fmt.Fprintf(b, "%s\n", styles.Muted.Render(fmt.Sprintf("… and %d more", len(m.snap.Warnings)-i)))
				break
			}
			fmt.Fprintf(b, "%s\n", styles.Muted.Render(util.TruncateString(w, 50)))
		}
	}
}

// statusLabel is kept for symmetry with StatusGlyph; some panes want the
// word rather than the mark.
func statusLabel(s plan.Status) string {
	switch s {
	case plan.StatusInProgress:
		return "in progress"
	default:
		return string(s)
	}
}

// clipLines bounds a block of text to max lines.
func clipLines(s string, max int) string {
	if max <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	return strings.Join(lines[:max], "\n")
}
