package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/flowcanvas/internal/domain"
)

// viewItem wraps a saved view, or the "new query" entry when view is nil.
type viewItem struct {
	view *domain.SavedView
}

func (i viewItem) FilterValue() string {
	if i.view == nil {
		return "new query"
	}
	return i.view.Name
}

func (i viewItem) Title() string {
	if i.view == nil {
		return "+ New query"
	}
	return fmt.Sprintf("%s [%s, %s]", i.view.Name, i.view.ViewType, i.view.TimeWindow)
}

func (i viewItem) Description() string {
	if i.view == nil {
		return "Type a JQL query"
	}
	return i.view.JQL
}

// viewDelegate renders saved views on two lines.
type viewDelegate struct{}

func (d viewDelegate) Height() int                             { return 2 }
func (d viewDelegate) Spacing() int                            { return 1 }
func (d viewDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d viewDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(viewItem)
	if !ok {
		return
	}

	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+i.Title()))
		fmt.Fprint(w, "\n  "+NormalItemStyle.Render(i.Description()))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+i.Title()))
		fmt.Fprint(w, "\n  "+dimStyle.Render(i.Description()))
	}
}

// ViewPickerModel lists the caller's saved views.
type ViewPickerModel struct {
	list list.Model
	err  error
}

// NewViewPickerModel creates a picker over views, with a "new query" entry first.
func NewViewPickerModel(views []domain.SavedView) ViewPickerModel {
	items := make([]list.Item, 0, len(views)+1)
	items = append(items, viewItem{})
	for i := range views {
		items = append(items, viewItem{view: &views[i]})
	}

	l := list.New(items, viewDelegate{}, 80, 20)
	l.Title = "Saved views"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle
	l.Styles.HelpStyle = HelpStyle

	return ViewPickerModel{list: l}
}

// Init initializes the model.
func (m ViewPickerModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages and updates the model state.
func (m ViewPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width - 2)
		m.list.SetHeight(msg.Height - 2)
		return m, nil

	case tea.KeyMsg:
		if m.list.SettingFilter() {
			break
		}
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return QuitMsg{} }
		case "n":
			return m, func() tea.Msg { return NewQueryMsg{} }
		case "enter":
			item, ok := m.list.SelectedItem().(viewItem)
			if !ok {
				return m, nil
			}
			if item.view == nil {
				return m, func() tea.Msg { return NewQueryMsg{} }
			}
			view := *item.view
			return m, func() tea.Msg { return ViewSelectedMsg{View: view} }
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the model.
func (m ViewPickerModel) View() string {
	view := m.list.View()
	if m.err != nil {
		view += ErrorStyle.Render(fmt.Sprintf("\nError: %v", m.err))
	}
	return view
}
