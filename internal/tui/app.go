package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/service"
	"github.com/h0rv/flowcanvas/internal/store"
)

// Backend is the subset of the service the dashboard uses.
type Backend interface {
	QueryAggregate(ctx context.Context, caller domain.Caller, req service.AggregateRequest) (domain.AggregateResult, error)
	ListViews(ctx context.Context, caller domain.Caller) ([]domain.SavedView, error)
	SaveView(ctx context.Context, caller domain.Caller, v domain.SavedView) (domain.SavedView, error)
	ExportIssuesCSV(ctx context.Context, caller domain.Caller, req service.ListRequest) (service.Export, error)
}

// Options configures the dashboard.
type Options struct {
	Caller domain.Caller
	// JQL skips the view picker and opens the board directly.
	JQL        string
	TimeWindow string
	MaxIssues  int
	// BrowseURL maps an issue key to its web page. Nil disables opening issues.
	BrowseURL func(key string) string
	// ExportDir receives CSV exports. Empty means the working directory.
	ExportDir string
}

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenLoading AppScreen = iota
	ScreenViewPicker
	ScreenQuery
	ScreenBoard
	ScreenDetail
)

// AppModel is the root Bubble Tea model that manages screen transitions:
// view picker or query prompt -> lane board <-> issue detail.
type AppModel struct {
	backend Backend
	store   *store.Store
	ctx     context.Context
	opts    Options

	currentScreen AppScreen
	currentModel  tea.Model
	err           error
	loadingMsg    string

	// kept so returning from the detail view preserves board state
	boardModel *BoardModel
}

// NewAppModel creates the root model.
func NewAppModel(backend Backend, s *store.Store, ctx context.Context, opts Options) AppModel {
	return AppModel{
		backend:       backend,
		store:         s,
		ctx:           ctx,
		opts:          opts,
		currentScreen: ScreenLoading,
		loadingMsg:    "Loading saved views...",
	}
}

// Init opens the board for a preset query, or loads the saved views.
func (m AppModel) Init() tea.Cmd {
	if m.opts.JQL != "" {
		jql := m.opts.JQL
		return func() tea.Msg { return QuerySubmittedMsg{JQL: jql} }
	}
	return m.listViews()
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && m.currentScreen != ScreenBoard {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case viewsLoadedMsg:
		if len(msg.views) == 0 {
			return m.showQueryInput("")
		}
		m.currentScreen = ScreenViewPicker
		picker := NewViewPickerModel(msg.views)
		m.currentModel = picker
		return m, picker.Init()

	case NewQueryMsg:
		initial := ""
		if q, err := m.store.GetQuery(); err == nil {
			initial = q.JQL
		}
		return m.showQueryInput(initial)

	case ViewSelectedMsg:
		m.store.Reset()
		m.store.SetQuery(store.Query{
			ViewName:   msg.View.Name,
			JQL:        msg.View.JQL,
			TimeWindow: msg.View.TimeWindow,
		})
		return m.showBoard()

	case QuerySubmittedMsg:
		m.store.Reset()
		m.store.SetQuery(store.Query{JQL: msg.JQL, TimeWindow: m.opts.TimeWindow})
		return m.showBoard()

	case changeViewMsg:
		m.currentScreen = ScreenLoading
		m.currentModel = nil
		m.loadingMsg = "Loading saved views..."
		return m, m.listViews()

	case openDetailMsg:
		url := ""
		if m.opts.BrowseURL != nil {
			url = m.opts.BrowseURL(msg.card.Key)
		}
		m.currentScreen = ScreenDetail
		detail := NewDetailModel(msg.card, url)
		m.currentModel = detail
		return m, detail.Init()

	case closeDetailMsg:
		m.currentScreen = ScreenBoard
		m.currentModel = m.boardModel
		return m, tea.WindowSize()
	}

	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		if m.currentScreen == ScreenBoard {
			if bm, ok := m.currentModel.(BoardModel); ok {
				m.boardModel = &bm
			}
		}
		return m, cmd
	}

	return m, nil
}

func (m AppModel) showQueryInput(initial string) (tea.Model, tea.Cmd) {
	m.currentScreen = ScreenQuery
	input := NewQueryInputModel(initial)
	m.currentModel = input
	return m, input.Init()
}

func (m AppModel) showBoard() (tea.Model, tea.Cmd) {
	m.currentScreen = ScreenBoard
	board := NewBoardModel(m.store, m.backend, m.ctx, m.opts)
	m.boardModel = &board
	m.currentModel = board
	return m, board.Init()
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}
	if m.currentModel != nil {
		return m.currentModel.View()
	}
	return m.loadingMsg + "\n\nPress Ctrl+C to quit"
}

// Screen returns the active screen.
func (m AppModel) Screen() AppScreen {
	return m.currentScreen
}

func (m AppModel) listViews() tea.Cmd {
	return func() tea.Msg {
		views, err := m.backend.ListViews(m.ctx, m.opts.Caller)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to list views: %w", err)}
		}
		return viewsLoadedMsg{views: views}
	}
}

type viewsLoadedMsg struct {
	views []domain.SavedView
}

// Run starts the dashboard on the terminal's alternate screen.
func Run(ctx context.Context, backend Backend, opts Options) error {
	app := NewAppModel(backend, store.New(), ctx, opts)
	_, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
	return err
}
