package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

// forceColor switches lipgloss to 256 colors and restores the previous
// profile when the test ends.
func forceColor(t *testing.T) {
	t.Helper()
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })
}

func TestStyles(t *testing.T) {
	forceColor(t)

	out := StyleSuccess.Render("Test")
	assert.Contains(t, out, "Test")
	assert.NotEqual(t, "Test", out, "Style should add ANSI codes when forced")

	// Strikethrough is applied rune by rune.
	done := StyleDone.Render("milk")
	assert.Equal(t, "milk", ansi.Strip(done))
	assert.Contains(t, done, ";9m")
	assert.NotEqual(t, "milk", done)
}

func TestIcon(t *testing.T) {
	forceColor(t)

	out := Icon("✓", StyleSuccess)
	assert.Contains(t, out, "✓")
	assert.NotEqual(t, "✓", out)
}

func TestForceColorRestoresProfile(t *testing.T) {
	before := lipgloss.ColorProfile()
	t.Run("forced", func(t *testing.T) {
		forceColor(t)
		assert.Equal(t, termenv.ANSI256, lipgloss.ColorProfile())
	})
	assert.Equal(t, before, lipgloss.ColorProfile())
}
