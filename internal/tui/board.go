package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/service"
	"github.com/h0rv/flowcanvas/internal/store"
	"github.com/muesli/reflow/truncate"
	"github.com/pkg/browser"
)

// Layout constants
const (
	minColumnWidth = 24
	maxColumnWidth = 48
	pageJumpSize   = 10
)

var (
	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)
)

// openURL is swapped in tests.
var (
	defaultOpenURL = browser.OpenURL
	openURL        = defaultOpenURL
)

// BoardModel shows the active query as one column per lane.
type BoardModel struct {
	// Dependencies
	backend Backend
	store   *store.Store
	ctx     context.Context
	opts    Options

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	filterInput textinput.Model
	nameInput   textinput.Model

	// Board state
	columns        []domain.Lane
	filteredCards  map[domain.Lane][]string
	selectedColumn int
	columnOffset   int
	selectedCard   map[domain.Lane]int
	scrollOffset   map[domain.Lane]int

	// View state
	width        int
	height       int
	showHelp     bool
	filterMode   bool
	filterText   string
	saveMode     bool
	loading      bool
	distribution *domain.Aggregate
	showDist     bool
	toast        string
	errorToast   string
}

// NewBoardModel creates a board over the query held in s.
func NewBoardModel(s *store.Store, backend Backend, ctx context.Context, opts Options) BoardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	filter := textinput.New()
	filter.Placeholder = "Filter..."
	filter.Prompt = "/ "

	name := textinput.New()
	name.Placeholder = "View name"
	name.Prompt = "save as: "
	name.CharLimit = 100

	return BoardModel{
		backend:       backend,
		store:         s,
		ctx:           ctx,
		opts:          opts,
		keymap:        DefaultKeyMap(),
		help:          NewHelpModel(DefaultKeyMap()),
		spinner:       sp,
		filterInput:   filter,
		nameInput:     name,
		columns:       append([]domain.Lane(nil), domain.Lanes...),
		filteredCards: make(map[domain.Lane][]string),
		selectedCard:  make(map[domain.Lane]int),
		scrollOffset:  make(map[domain.Lane]int),
		loading:       true,
	}
}

// Init starts loading the board.
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.load())
}

// Update handles messages.
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		m.loading = false
		m.errorToast = ""
		m.store.Clear()
		if c := msg.result.Aggregate.Canvas; c != nil {
			m.store.UpsertCards(store.CardsFromCanvas(c.Points))
		}
		m.store.SetMeta(msg.result.Meta)
		(&m).applyFilter()
		return m, nil

	case boardErrorMsg:
		m.loading = false
		m.errorToast = fmt.Sprintf("Load failed: %v", msg.err)
		return m, nil

	case distributionLoadedMsg:
		agg := msg.aggregate
		m.distribution = &agg
		m.showDist = true
		return m, nil

	case viewSavedMsg:
		q, _ := m.store.GetQuery()
		q.ViewName = msg.view.Name
		m.store.SetQuery(q)
		m.toast = fmt.Sprintf("Saved view %q", msg.view.Name)
		return m, nil

	case exportedMsg:
		m.toast = "Exported to " + msg.path
		return m, nil

	case actionErrorMsg:
		m.errorToast = msg.err.Error()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "q", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	if m.filterMode {
		switch msg.String() {
		case "enter":
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			m.filterInput.Blur()
			(&m).applyFilter()
			return m, nil
		case "esc":
			m.filterMode = false
			m.filterInput.SetValue(m.filterText)
			m.filterInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd
	}

	if m.saveMode {
		switch msg.String() {
		case "enter":
			name := strings.TrimSpace(m.nameInput.Value())
			m.saveMode = false
			m.nameInput.Blur()
			if name == "" {
				m.errorToast = "View name is required"
				return m, nil
			}
			return m, m.saveView(name)
		case "esc":
			m.saveMode = false
			m.nameInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}

	if m.showDist && msg.String() == "esc" {
		m.showDist = false
		return m, nil
	}

	m.toast = ""
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = true
	case key.Matches(msg, m.keymap.Filter):
		m.filterMode = true
		return m, m.filterInput.Focus()
	case key.Matches(msg, m.keymap.Left):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			(&m).adjustColumnScroll()
		}
	case key.Matches(msg, m.keymap.Right):
		if m.selectedColumn < len(m.columns)-1 {
			m.selectedColumn++
			(&m).adjustColumnScroll()
		}
	case key.Matches(msg, m.keymap.Down):
		(&m).moveCardSelection(1)
	case key.Matches(msg, m.keymap.Up):
		(&m).moveCardSelection(-1)
	case key.Matches(msg, m.keymap.Top):
		(&m).jumpToCard(0)
	case key.Matches(msg, m.keymap.Bottom):
		(&m).jumpToCard(-1)
	case msg.String() == "ctrl+d":
		(&m).moveCardSelection(pageJumpSize)
	case msg.String() == "ctrl+u":
		(&m).moveCardSelection(-pageJumpSize)
	case key.Matches(msg, m.keymap.Open):
		if card := m.getSelectedCard(); card != nil && m.opts.BrowseURL != nil {
			if err := openURL(m.opts.BrowseURL(card.Key)); err != nil {
				m.errorToast = fmt.Sprintf("Open failed: %v", err)
			}
		}
	case key.Matches(msg, m.keymap.Detail):
		if card := m.getSelectedCard(); card != nil {
			return m, func() tea.Msg { return openDetailMsg{card: card} }
		}
	case key.Matches(msg, m.keymap.Refresh):
		m.loading = true
		m.distribution = nil
		m.showDist = false
		return m, tea.Batch(m.spinner.Tick, m.load())
	case key.Matches(msg, m.keymap.Distribution):
		if m.showDist {
			m.showDist = false
			return m, nil
		}
		if m.distribution != nil {
			m.showDist = true
			return m, nil
		}
		return m, m.loadDistribution()
	case key.Matches(msg, m.keymap.SaveView):
		m.saveMode = true
		q, _ := m.store.GetQuery()
		m.nameInput.SetValue(q.ViewName)
		return m, m.nameInput.Focus()
	case key.Matches(msg, m.keymap.Export):
		return m, m.export()
	case key.Matches(msg, m.keymap.Views):
		return m, func() tea.Msg { return changeViewMsg{} }
	}

	return m, nil
}

// View renders the board filling the terminal.
func (m BoardModel) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	sections := []string{m.renderHeader(width), m.renderSecondHeader(width)}
	boardHeight := height - 2

	if m.filterMode {
		sections = append(sections, m.filterInput.View())
		boardHeight--
	}
	if m.saveMode {
		sections = append(sections, modeStyle.Render("SAVE")+" "+m.nameInput.View())
		boardHeight--
	}
	boardHeight = max(boardHeight, 5)

	var main string
	switch {
	case m.showHelp:
		lines := strings.Split(m.help.View(width), "\n")
		if len(lines) > boardHeight {
			lines = lines[:boardHeight]
		}
		main = strings.Join(lines, "\n")
	case m.loading && m.store.Len() == 0:
		main = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading...")
	case m.showDist && m.distribution != nil:
		main = renderDistribution(*m.distribution, width)
	case m.store.Len() == 0:
		main = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, "No issues match. Press 'r' to refresh or 'v' for views.")
	default:
		main = m.renderBoard(width, boardHeight)
	}
	sections = append(sections, main)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the query on the left and load status on the right.
func (m BoardModel) renderHeader(width int) string {
	q, err := m.store.GetQuery()
	if err != nil {
		return ""
	}
	title := q.JQL
	if q.ViewName != "" {
		title = q.ViewName + ": " + q.JQL
	}

	var status []string
	if m.loading {
		status = append(status, m.spinner.View()+"loading")
	}
	total := 0
	for _, keys := range m.filteredCards {
		total += len(keys)
	}
	meta := m.store.GetMeta()
	if meta.Truncated {
		status = append(status, fmt.Sprintf("%d/%d issues", total, meta.TotalAvailable))
	} else {
		status = append(status, fmt.Sprintf("%d issues", total))
	}
	if meta.CacheHit {
		status = append(status, "cached")
	}
	if m.filterText != "" {
		status = append(status, "/"+m.filterText)
	}
	status = append(status, "[?]help")
	right := strings.Join(status, " | ")

	room := max(width-lipgloss.Width(right)-2, 10)
	title = truncate.StringWithTail(title, uint(room), "…")
	padding := max(width-lipgloss.Width(title)-lipgloss.Width(right)-1, 1)
	return titleStyle.Render(title) + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// renderSecondHeader renders key hints, or a toast, and the position.
func (m BoardModel) renderSecondHeader(width int) string {
	left := dimStyle.Render("h/l:lane j/k:issue enter:detail o:open d:dist s:save e:export")
	switch {
	case m.errorToast != "":
		left = errorToastStyle.Render(m.errorToast)
	case m.toast != "":
		left = toastStyle.Render(m.toast)
	}

	right := ""
	if len(m.columns) > 0 {
		lane := m.columns[m.selectedColumn]
		right = fmt.Sprintf("lane %d/%d", m.selectedColumn+1, len(m.columns))
		if n := len(m.filteredCards[lane]); n > 0 {
			right += fmt.Sprintf(" | issue %d/%d", m.selectedCard[lane]+1, n)
		}
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right)-1, 1)
	return left + strings.Repeat(" ", padding) + right
}

// renderBoard renders the lanes within the given dimensions, scrolling horizontally
// when they do not all fit.
func (m BoardModel) renderBoard(totalWidth, totalHeight int) string {
	numCols := len(m.columns)
	if numCols == 0 {
		return ""
	}

	contentHeight := max(totalHeight-2, 3) // borders
	visibleCols := min(max(totalWidth/minColumnWidth, 1), numCols)
	colWidth := min(max(totalWidth/visibleCols, minColumnWidth), maxColumnWidth)
	innerWidth := max(colWidth-4, 10)

	startCol := m.columnOffset
	endCol := startCol + visibleCols
	if endCol > numCols {
		endCol = numCols
		startCol = max(endCol-visibleCols, 0)
	}

	views := make([]string, 0, visibleCols)
	for i := startCol; i < endCol; i++ {
		views = append(views, m.renderColumn(m.columns[i], i == m.selectedColumn, colWidth, contentHeight, innerWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// renderColumn renders one lane. innerHeight excludes the border.
func (m BoardModel) renderColumn(lane domain.Lane, selected bool, width, innerHeight, innerWidth int) string {
	keys := m.filteredCards[lane]
	header := lipgloss.NewStyle().Bold(true).Foreground(laneColors[lane]).
		Render(truncate.StringWithTail(fmt.Sprintf("%s (%d)", LaneTitle(lane), len(keys)), uint(innerWidth), "…"))

	offset := m.scrollOffset[lane]
	slots := max(innerHeight-1, 1)
	if offset > 0 {
		slots--
	}
	end := min(offset+slots, len(keys))
	if end < len(keys) {
		end = min(offset+max(slots-1, 0), len(keys))
	}

	lines := []string{header}
	if offset > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↑ %d more", offset)))
	}
	for i := offset; i < end; i++ {
		card, err := m.store.GetCard(keys[i])
		if err != nil {
			continue
		}
		text := formatCardText(card, innerWidth-2)
		if selected && i == m.selectedCard[lane] {
			lines = append(lines, selectedCardStyle.Render("> "+text))
		} else {
			lines = append(lines, cardStyle.Render("  "+text))
		}
	}
	if rest := len(keys) - end; rest > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", rest)))
	}
	if len(keys) == 0 {
		lines = append(lines, dimStyle.Render("(empty)"))
	}

	border := lipgloss.Color("240")
	if selected {
		border = lipgloss.Color("205")
	}
	return lipgloss.NewStyle().
		Width(width-2).
		Height(innerHeight).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Render(strings.Join(lines, "\n"))
}

// formatCardText renders "KEY summary" with the age right-aligned.
func formatCardText(card *store.Card, maxWidth int) string {
	age := fmt.Sprintf("%dd", int(card.AgeDays))
	room := max(maxWidth-len(age)-1, 5)
	text := truncate.StringWithTail(card.Key+" "+card.Summary, uint(room), "…")
	padding := max(maxWidth-lipgloss.Width(text)-len(age), 1)
	return text + strings.Repeat(" ", padding) + dimStyle.Render(age)
}

// applyFilter filters each lane by the filter text, matched against key and summary.
func (m *BoardModel) applyFilter() {
	needle := strings.ToLower(m.filterText)
	m.filteredCards = make(map[domain.Lane][]string, len(m.columns))

	for _, lane := range m.columns {
		filtered := []string{}
		for _, k := range m.store.GetColumnCardKeys(lane) {
			card, err := m.store.GetCard(k)
			if err != nil {
				continue
			}
			if needle != "" &&
				!strings.Contains(strings.ToLower(card.Summary), needle) &&
				!strings.Contains(strings.ToLower(card.Key), needle) {
				continue
			}
			filtered = append(filtered, k)
		}
		m.filteredCards[lane] = filtered

		m.scrollOffset[lane] = 0
		if m.selectedCard[lane] >= len(filtered) {
			m.selectedCard[lane] = max(len(filtered)-1, 0)
		}
	}
}

func (m *BoardModel) moveCardSelection(delta int) {
	lane := m.columns[m.selectedColumn]
	n := len(m.filteredCards[lane])
	if n == 0 {
		return
	}
	m.selectedCard[lane] = min(max(m.selectedCard[lane]+delta, 0), n-1)
	m.adjustScroll(lane)
}

// jumpToCard selects card idx of the current lane; -1 selects the last.
func (m *BoardModel) jumpToCard(idx int) {
	lane := m.columns[m.selectedColumn]
	n := len(m.filteredCards[lane])
	if n == 0 {
		return
	}
	if idx < 0 || idx >= n {
		idx = n - 1
	}
	m.selectedCard[lane] = idx
	m.adjustScroll(lane)
}

// adjustScroll keeps the selected card visible.
func (m *BoardModel) adjustScroll(lane domain.Lane) {
	visible := max(m.height-2-2-3, 3) // headers, borders, lane header and indicators
	selected := m.selectedCard[lane]
	if selected < m.scrollOffset[lane] {
		m.scrollOffset[lane] = selected
	}
	if selected >= m.scrollOffset[lane]+visible {
		m.scrollOffset[lane] = selected - visible + 1
	}
}

// adjustColumnScroll keeps the selected lane visible.
func (m *BoardModel) adjustColumnScroll() {
	if m.width == 0 {
		return
	}
	visible := min(max(m.width/minColumnWidth, 1), len(m.columns))
	if m.selectedColumn < m.columnOffset {
		m.columnOffset = m.selectedColumn
	}
	if m.selectedColumn >= m.columnOffset+visible {
		m.columnOffset = m.selectedColumn - visible + 1
	}
}

func (m BoardModel) getSelectedCard() *store.Card {
	lane := m.columns[m.selectedColumn]
	keys := m.filteredCards[lane]
	if len(keys) == 0 {
		return nil
	}
	idx := m.selectedCard[lane]
	if idx >= len(keys) {
		idx = 0
	}
	card, err := m.store.GetCard(keys[idx])
	if err != nil {
		return nil
	}
	return card
}

func (m BoardModel) aggregateRequest(viewType string) (service.AggregateRequest, error) {
	q, err := m.store.GetQuery()
	if err != nil {
		return service.AggregateRequest{}, err
	}
	return service.AggregateRequest{
		JQL:        q.JQL,
		ViewType:   viewType,
		TimeWindow: q.TimeWindow,
		MaxIssues:  m.opts.MaxIssues,
	}, nil
}

// load runs the canvas aggregate, which carries every issue with its lane and age.
func (m BoardModel) load() tea.Cmd {
	return func() tea.Msg {
		req, err := m.aggregateRequest(domain.ViewCanvas)
		if err != nil {
			return boardErrorMsg{err: err}
		}
		res, err := m.backend.QueryAggregate(m.ctx, m.opts.Caller, req)
		if err != nil {
			return boardErrorMsg{err: err}
		}
		return boardLoadedMsg{result: res}
	}
}

func (m BoardModel) loadDistribution() tea.Cmd {
	return func() tea.Msg {
		req, err := m.aggregateRequest(domain.ViewDistribution)
		if err != nil {
			return actionErrorMsg{err: err}
		}
		res, err := m.backend.QueryAggregate(m.ctx, m.opts.Caller, req)
		if err != nil {
			return actionErrorMsg{err: err}
		}
		return distributionLoadedMsg{aggregate: res.Aggregate}
	}
}

func (m BoardModel) saveView(name string) tea.Cmd {
	return func() tea.Msg {
		q, err := m.store.GetQuery()
		if err != nil {
			return actionErrorMsg{err: err}
		}
		saved, err := m.backend.SaveView(m.ctx, m.opts.Caller, domain.SavedView{
			Name:       name,
			JQL:        q.JQL,
			TimeWindow: q.TimeWindow,
			ViewType:   domain.ViewFlow,
		})
		if err != nil {
			return actionErrorMsg{err: err}
		}
		return viewSavedMsg{view: saved}
	}
}

// export writes the query's CSV export into the export directory.
func (m BoardModel) export() tea.Cmd {
	return func() tea.Msg {
		q, err := m.store.GetQuery()
		if err != nil {
			return actionErrorMsg{err: err}
		}
		out, err := m.backend.ExportIssuesCSV(m.ctx, m.opts.Caller, service.ListRequest{JQL: q.JQL})
		if err != nil {
			return actionErrorMsg{err: err}
		}
		path := filepath.Join(m.opts.ExportDir, out.FileName)
		if err := os.WriteFile(path, []byte(out.Content), 0o644); err != nil {
			return actionErrorMsg{err: fmt.Errorf("writing export: %w", err)}
		}
		return exportedMsg{path: path}
	}
}
