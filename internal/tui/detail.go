package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/flowcanvas/internal/store"
	"github.com/muesli/reflow/wordwrap"
)

var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				Width(10)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("205")).
				Padding(0, 1)
)

// DetailModel shows a single issue.
type DetailModel struct {
	card     *store.Card
	url      string
	viewport viewport.Model
	err      string

	width  int
	height int
}

// NewDetailModel creates a detail view for card. url may be empty.
func NewDetailModel(card *store.Card, url string) DetailModel {
	vp := viewport.New(60, 10) // resized on WindowSizeMsg
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	m := DetailModel{card: card, url: url, viewport: vp}
	m.viewport.SetContent(m.renderBody(vp.Width))
	return m
}

// Init requests the window size.
func (m DetailModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages.
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 20)  // border and padding
		m.viewport.Height = max(msg.Height-4, 5) // header, footer and border
		m.viewport.SetContent(m.renderBody(m.viewport.Width))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q", "esc":
			return m, func() tea.Msg { return closeDetailMsg{} }
		case "o":
			if m.url != "" {
				if err := openURL(m.url); err != nil {
					m.err = fmt.Sprintf("Open failed: %v", err)
				}
			}
			return m, nil
		case "j", "down":
			m.viewport.LineDown(1)
			return m, nil
		case "k", "up":
			m.viewport.LineUp(1)
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// renderBody lays out the issue fields with the summary wrapped to width.
func (m DetailModel) renderBody(width int) string {
	c := m.card
	field := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return detailLabelStyle.Render(label) + detailValueStyle.Render(value)
	}

	lines := []string{
		detailTitleStyle.Render(c.Key),
		"",
		wordwrap.String(c.Summary, max(width, 10)),
		"",
		field("Status", c.Status),
		field("Lane", LaneTitle(c.Lane)),
		field("Priority", c.Priority),
		field("Age", fmt.Sprintf("%.1f days", c.AgeDays)),
	}
	if m.url != "" {
		lines = append(lines, field("URL", m.url))
	}
	return strings.Join(lines, "\n")
}

// View renders the detail view.
func (m DetailModel) View() string {
	header := dimStyle.Render("[q]back [o]open [j/k]scroll [g/G]top/bottom")
	if m.err != "" {
		header = errorToastStyle.Render(m.err)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, panelBorderStyle.Render(m.viewport.View()))
}
