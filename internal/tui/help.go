package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// HelpOverlayStyle frames the help overlay.
var HelpOverlayStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("62")).
	Padding(1, 2).
	MarginTop(1)

// HelpModel wraps the bubbles help component.
type HelpModel struct {
	help   help.Model
	keymap KeyMap
}

// NewHelpModel creates a help overlay listing every binding in keymap.
func NewHelpModel(keymap KeyMap) HelpModel {
	h := help.New()
	h.ShowAll = true
	return HelpModel{help: h, keymap: keymap}
}

// View renders the help overlay.
func (m HelpModel) View(width int) string {
	m.help.Width = width - 8 // border and padding
	return HelpOverlayStyle.Render(m.help.View(m.keymap))
}
