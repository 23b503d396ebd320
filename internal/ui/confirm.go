package ui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Confirm asks a yes/no question. Anything but an explicit yes is a no.
func Confirm(question string, in io.Reader, out io.Writer) (bool, error) {
	p := tea.NewProgram(confirmModel{question: question}, tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return final.(confirmModel).yes, nil
}

type confirmModel struct {
	question string
	yes      bool
	done     bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.yes = true
	case "n", "N", "enter", "esc", "ctrl+c", "q":
		m.yes = false
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	return StyleWarning.Render("? ") + StyleTitle.Render(m.question) + StyleSubtle.Render(" [y/N] ")
}
