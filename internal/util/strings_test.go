package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"tiny maxLen returns ellipsis", "hello", 3, "..."},
		{"zero maxLen returns ellipsis", "hello", 0, "..."},
		{"unicode counted in runes", "ターミナル表示", 6, "ターミ..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestTruncateANSIPreservesStyling(t *testing.T) {
	styled := lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Render("a long failed task name")

	got := TruncateANSI(styled, 10)
	if lipgloss.Width(got) > 10 {
		t.Errorf("width = %d, want <= 10", lipgloss.Width(got))
	}

	short := TruncateANSI("abc", 10)
	if short != "abc" {
		t.Errorf("short input changed: %q", short)
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("PadRight = %q", got)
	}
	if got := PadRight("abcdef", 3); got != "abcdef" {
		t.Errorf("overlong input changed: %q", got)
	}
	if got := PadRight("x", 0); got != "x" {
		t.Errorf("zero width changed input: %q", got)
	}
}
