package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/flowcanvas/internal/domain"
)

var (
	// TitleStyle is used for screen titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")). // Purple
			MarginBottom(1)

	// SelectedItemStyle is used for highlighted/selected items.
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")). // Light purple
				Bold(true)

	// NormalItemStyle is used for non-selected items.
	NormalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Light gray

	// ErrorStyle is used for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// PromptStyle is used for prompt text.
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	// HelpStyle is used for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Dark gray
			MarginTop(1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorToastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	modeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("205")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1)
)

// laneColors match the status category palette of the canvas.
var laneColors = map[domain.Lane]lipgloss.Color{
	domain.LaneBacklog:    lipgloss.Color("#8C9CB8"),
	domain.LaneInProgress: lipgloss.Color("#0065FF"),
	domain.LaneDone:       lipgloss.Color("#36B37E"),
	domain.LaneOther:      lipgloss.Color("#6B778C"),
}

var laneTitles = map[domain.Lane]string{
	domain.LaneBacklog:    "Backlog",
	domain.LaneInProgress: "In Progress",
	domain.LaneDone:       "Done",
	domain.LaneOther:      "Other",
}

// LaneTitle returns the display name of lane.
func LaneTitle(lane domain.Lane) string {
	if t, ok := laneTitles[lane]; ok {
		return t
	}
	return string(lane)
}
