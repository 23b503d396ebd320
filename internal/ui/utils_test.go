package ui

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"empty", "", 10, ""},
		{"short string", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 8, "hello..."},
		{"very short max", "hello", 3, "hel"},
		{"zero max", "hello", 0, "hello"},
		{"multibyte", "crème brûlée", 8, "crème..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestPanel(t *testing.T) {
	t.Run("basic panel", func(t *testing.T) {
		result := NewPanel("Title", "Content").Render()
		if !strings.Contains(result, "Title") || !strings.Contains(result, "Content") {
			t.Errorf("panel missing title or content: %q", result)
		}
	})

	t.Run("panel without title", func(t *testing.T) {
		result := NewPanel("", "Content only").Render()
		if !strings.Contains(result, "Content only") {
			t.Error("Panel should contain content")
		}
	})

	t.Run("convenience functions", func(t *testing.T) {
		if !strings.Contains(RenderSuccessPanel("Saved", "content"), "Saved") {
			t.Error("Success panel should contain title")
		}
		if !strings.Contains(RenderWarningPanel("Warning", "content"), "Warning") {
			t.Error("Warning panel should contain title")
		}
	})
}
