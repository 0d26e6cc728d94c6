package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/claudeck/claudeck/internal/tui/styles"
	"github.com/claudeck/claudeck/internal/util"
)

// View renders the full dashboard frame.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	statusBar := m.renderStatusBar()

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - lipgloss.Height(statusBar)
	if contentHeight < 3 {
		contentHeight = 3
	}

	leftWidth := m.width * 3 / 5
	rightWidth := m.width - leftWidth

	left := m.renderTaskPane(leftWidth, contentHeight)
	detailHeight := contentHeight / 2
	detail := m.renderDetailPane(rightWidth, detailHeight)
	agents := m.renderAgentPane(rightWidth, contentHeight-detailHeight)

	right := lipgloss.JoinVertical(lipgloss.Left, detail, agents)
	content := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	frame := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar, footer)

	if m.retry != nil {
		return m.overlayModal(frame)
	}
	return frame
}

func (m Model) renderHeader() string {
	title := styles.Title.Render("claudeck")
	metrics := m.snap.Metrics
	progress := fmt.Sprintf("%d/%d tasks (%.0f%%)",
		metrics.Completed, metrics.TotalTasks, metrics.OverallProgress*100)

	parts := []string{title, styles.Muted.Render("·"), styles.Text.Render(progress)}
	if metrics.Failed > 0 {
		parts = append(parts, styles.Error.Render(fmt.Sprintf("%d failed", metrics.Failed)))
	}
	if metrics.InProgress > 0 {
		parts = append(parts, styles.Secondary.Render(fmt.Sprintf("%d running", metrics.InProgress)))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderStatusBar() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("uptime %s", formatDuration(m.snap.Metrics.Uptime(m.now))))
	if m.snap.SessionID != "" {
		parts = append(parts, "session "+m.snap.SessionID)
	}
	if n := len(m.snap.Warnings); n > 0 {
		parts = append(parts, styles.Warning.Render(fmt.Sprintf("%d warning(s)", n)))
	}
	if m.statusMsg != "" {
		parts = append(parts, styles.Primary.Render(m.statusMsg))
	}
	return styles.StatusBar.Render(strings.Join(parts, "  ·  "))
}

func (m Model) renderFooter() string {
	return m.help.View(m.keys)
}

// overlayModal centers the retry modal over the frame.
func (m Model) overlayModal(frame string) string {
	prompt := m.retry

	var b strings.Builder
	b.WriteString(styles.Title.Render("Retry task"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s: %s\n", prompt.TaskID, prompt.TaskName))
	if prompt.HasError {
		b.WriteString("\n")
		b.WriteString(styles.Error.Render("last error: "))
		b.WriteString(util.TruncateString(prompt.Excerpt, 60))
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render(fmt.Sprintf("category: %s", prompt.Analysis.Category)))
		if prompt.Analysis.Hint != "" {
			b.WriteString("\n")
			b.WriteString(styles.Muted.Render(prompt.Analysis.Hint))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if prompt.Analysis.Retryable {
		b.WriteString("Mark as in-progress and retry?  ")
		b.WriteString(styles.Secondary.Render("[y]es"))
		b.WriteString("  ")
		b.WriteString(styles.Muted.Render("[n]o"))
	} else {
		b.WriteString(styles.Warning.Render("This failure does not look retryable."))
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render("[n] close"))
	}

	modal := styles.ModalBox.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

// formatDuration renders a duration as 1h02m03s / 4m05s / 12s.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	mnt := (d % time.Hour) / time.Minute
	sec := (d % time.Minute) / time.Second
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, mnt, sec)
	case mnt > 0:
		return fmt.Sprintf("%dm%02ds", mnt, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
