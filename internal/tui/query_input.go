package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// QueryInputModel prompts for an ad hoc JQL query.
type QueryInputModel struct {
	input textinput.Model
	err   string
}

// NewQueryInputModel creates a prompt pre-filled with initial.
func NewQueryInputModel(initial string) QueryInputModel {
	ti := textinput.New()
	ti.Placeholder = "project = ABC AND status != Done"
	ti.Prompt = "JQL> "
	ti.CharLimit = 2000
	ti.Width = 72
	ti.SetValue(initial)
	ti.Focus()
	return QueryInputModel{input: ti}
}

// Init starts the cursor blinking.
func (m QueryInputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m QueryInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.Width = max(20, msg.Width-8)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, func() tea.Msg { return QuitMsg{} }
		case "enter":
			jql := strings.TrimSpace(m.input.Value())
			if jql == "" {
				m.err = "JQL is required"
				return m, nil
			}
			return m, func() tea.Msg { return QuerySubmittedMsg{JQL: jql} }
		}
	}

	m.err = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the prompt.
func (m QueryInputModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("New query"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	if m.err != "" {
		b.WriteString("\n" + ErrorStyle.Render(m.err))
	}
	b.WriteString("\n" + HelpStyle.Render("enter: run  esc: quit"))
	return b.String()
}
