package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/service"
	"github.com/h0rv/flowcanvas/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records requests and serves canned results.
type fakeBackend struct {
	result    domain.AggregateResult
	views     []domain.SavedView
	export    service.Export
	err       error
	requests  []service.AggregateRequest
	saved     []domain.SavedView
	exportReq service.ListRequest
}

func (f *fakeBackend) QueryAggregate(_ context.Context, _ domain.Caller, req service.AggregateRequest) (domain.AggregateResult, error) {
	f.requests = append(f.requests, req)
	return f.result, f.err
}

func (f *fakeBackend) ListViews(context.Context, domain.Caller) ([]domain.SavedView, error) {
	return f.views, f.err
}

func (f *fakeBackend) SaveView(_ context.Context, _ domain.Caller, v domain.SavedView) (domain.SavedView, error) {
	f.saved = append(f.saved, v)
	return v, f.err
}

func (f *fakeBackend) ExportIssuesCSV(_ context.Context, _ domain.Caller, req service.ListRequest) (service.Export, error) {
	f.exportReq = req
	return f.export, f.err
}

func testPoints() []domain.CanvasPoint {
	return []domain.CanvasPoint{
		{IssueKey: "AYB-1", Summary: "Fix login", Status: "To Do", Lane: domain.LaneBacklog, AgeDays: 3},
		{IssueKey: "AYB-2", Summary: "Old task", Status: "To Do", Lane: domain.LaneBacklog, AgeDays: 30},
		{IssueKey: "AYB-3", Summary: "Build export", Status: "In Progress", Lane: domain.LaneInProgress, AgeDays: 5},
		{IssueKey: "AYB-4", Summary: "Ship it", Status: "Done", Lane: domain.LaneDone, AgeDays: 1},
	}
}

// createTestBoard creates a board over a loaded store.
func createTestBoard(t *testing.T, backend *fakeBackend) BoardModel {
	t.Helper()
	s := store.New()
	s.SetQuery(store.Query{JQL: "project = AYB", TimeWindow: "P30D"})
	board := NewBoardModel(s, backend, context.Background(), Options{
		Caller:    domain.Caller{AccountID: "alice"},
		BrowseURL: func(key string) string { return "https://example.atlassian.net/browse/" + key },
		ExportDir: t.TempDir(),
	})
	model, _ := board.Update(boardLoadedMsg{result: domain.AggregateResult{
		Aggregate: domain.Aggregate{Type: domain.ViewCanvas, Canvas: &domain.CanvasDataset{Points: testPoints()}},
		Meta:      domain.AggregateMeta{SourceCount: 4, TotalAvailable: 4},
	}})
	return model.(BoardModel)
}

func press(t *testing.T, m BoardModel, keys ...string) (BoardModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var model tea.Model
		model, cmd = m.Update(msg)
		m = model.(BoardModel)
	}
	return m, cmd
}

func TestBoardModel_Columns(t *testing.T) {
	board := createTestBoard(t, &fakeBackend{})

	assert.Equal(t, domain.Lanes, board.columns)
	assert.False(t, board.loading)
	assert.Equal(t, []string{"AYB-2", "AYB-1"}, board.filteredCards[domain.LaneBacklog], "oldest first")
	assert.Equal(t, []string{"AYB-3"}, board.filteredCards[domain.LaneInProgress])
	assert.Equal(t, []string{"AYB-4"}, board.filteredCards[domain.LaneDone])
	assert.Empty(t, board.filteredCards[domain.LaneOther])
}

func TestBoardModel_Reload(t *testing.T) {
	board := createTestBoard(t, &fakeBackend{})
	model, _ := board.Update(boardLoadedMsg{result: domain.AggregateResult{
		Aggregate: domain.Aggregate{Type: domain.ViewCanvas, Canvas: &domain.CanvasDataset{}},
	}})
	board = model.(BoardModel)
	assert.Equal(t, 0, board.store.Len(), "previous cards dropped")
}

func TestBoardModel_ApplyFilterWithText(t *testing.T) {
	board := createTestBoard(t, &fakeBackend{})

	board.filterText = "login"
	(&board).applyFilter()
	assert.Equal(t, []string{"AYB-1"}, board.filteredCards[domain.LaneBacklog])
	assert.Empty(t, board.filteredCards[domain.LaneInProgress])

	t.Run("matches key", func(t *testing.T) {
		board.filterText = "ayb-4"
		(&board).applyFilter()
		assert.Equal(t, []string{"AYB-4"}, board.filteredCards[domain.LaneDone])
	})
}

func TestBoardModel_FilterMode(t *testing.T) {
	board := createTestBoard(t, &fakeBackend{})

	board, _ = press(t, board, "/")
	assert.True(t, board.filterMode)
	board, _ = press(t, board, "s", "h", "i", "p", "enter")
	assert.False(t, board.filterMode)
	assert.Equal(t, "ship", board.filterText)
	assert.Equal(t, []string{"AYB-4"}, board.filteredCards[domain.LaneDone])
	assert.Empty(t, board.filteredCards[domain.LaneBacklog])
}

func TestBoardModel_Navigation(t *testing.T) {
	board := createTestBoard(t, &fakeBackend{})
	board.width, board.height = 120, 40

	assert.Equal(t, 0, board.selectedColumn)
	board, _ = press(t, board, "l", "l")
	assert.Equal(t, 2, board.selectedColumn)
	board, _ = press(t, board, "h")
	assert.Equal(t, 1, board.selectedColumn)

	board, _ = press(t, board, "h", "h")
	assert.Equal(t, 0, board.selectedColumn, "stops at first lane")

	board, _ = press(t, board, "j")
	assert.Equal(t, 1, board.selectedCard[domain.LaneBacklog])
	assert.Equal(t, "AYB-1", board.getSelectedCard().Key)

	board, _ = press(t, board, "j")
	assert.Equal(t, 1, board.selectedCard[domain.LaneBacklog], "stops at last issue")

	board, _ = press(t, board, "g")
	assert.Equal(t, 0, board.selectedCard[domain.LaneBacklog])
	board, _ = press(t, board, "G")
	assert.Equal(t, 1, board.selectedCard[domain.LaneBacklog])

	t.Run("empty lane", func(t *testing.T) {
		b, _ := press(t, board, "l", "l", "l")
		assert.Equal(t, 3, b.selectedColumn)
		assert.Nil(t, b.getSelectedCard())
	})
}

func TestBoardModel_DetailMessage(t *testing.T) {
	board := createTestBoard(t, &fakeBackend{})

	_, cmd := press(t, board, "enter")
	require.NotNil(t, cmd)
	msg, ok := cmd().(openDetailMsg)
	require.True(t, ok)
	assert.Equal(t, "AYB-2", msg.card.Key)
}

func TestBoardModel_OpenInBrowser(t *testing.T) {
	var opened string
	openURL = func(url string) error { opened = url; return nil }
	t.Cleanup(func() { openURL = defaultOpenURL })

	board := createTestBoard(t, &fakeBackend{})
	press(t, board, "o")
	assert.Equal(t, "https://example.atlassian.net/browse/AYB-2", opened)

	t.Run("reports failure", func(t *testing.T) {
		openURL = func(string) error { return errors.New("no browser") }
		b, _ := press(t, board, "o")
		assert.Contains(t, b.errorToast, "no browser")
	})
}

func TestBoardModel_Load(t *testing.T) {
	backend := &fakeBackend{result: domain.AggregateResult{Aggregate: domain.Aggregate{Type: domain.ViewCanvas}}}
	board := createTestBoard(t, backend)
	board.opts.MaxIssues = 500

	msg := board.load()()
	_, ok := msg.(boardLoadedMsg)
	require.True(t, ok)
	require.Len(t, backend.requests, 1)
	assert.Equal(t, service.AggregateRequest{JQL: "project = AYB", ViewType: "canvas", TimeWindow: "P30D", MaxIssues: 500}, backend.requests[0])

	t.Run("error", func(t *testing.T) {
		backend.err = errors.New("down")
		msg := board.load()()
		errMsg, ok := msg.(boardErrorMsg)
		require.True(t, ok)

		model, _ := board.Update(errMsg)
		assert.Contains(t, model.(BoardModel).errorToast, "down")
	})
}

func TestBoardModel_Distribution(t *testing.T) {
	backend := &fakeBackend{result: domain.AggregateResult{Aggregate: domain.Aggregate{
		Type:        domain.ViewDistribution,
		TotalIssues: 3,
		ByPriority:  map[string]int{"High": 2, "Low": 1},
		ByTeam:      map[string]int{"Unassigned": 3},
	}}}
	board := createTestBoard(t, backend)

	board, cmd := press(t, board, "d")
	require.NotNil(t, cmd)
	model, _ := board.Update(cmd())
	board = model.(BoardModel)

	assert.True(t, board.showDist)
	assert.Equal(t, "distribution", backend.requests[0].ViewType)
	view := board.View()
	assert.Contains(t, view, "By priority")
	assert.Contains(t, view, "High")

	board, _ = press(t, board, "esc")
	assert.False(t, board.showDist)
	board, cmd = press(t, board, "d")
	assert.True(t, board.showDist, "cached distribution reused")
	assert.Nil(t, cmd)
}

func TestBoardModel_SaveView(t *testing.T) {
	backend := &fakeBackend{}
	board := createTestBoard(t, backend)

	board, _ = press(t, board, "s")
	require.True(t, board.saveMode)
	board, cmd := press(t, board, "M", "i", "n", "e", "enter")
	require.NotNil(t, cmd)
	assert.False(t, board.saveMode)

	model, _ := board.Update(cmd())
	board = model.(BoardModel)

	require.Len(t, backend.saved, 1)
	assert.Equal(t, domain.SavedView{Name: "Mine", JQL: "project = AYB", TimeWindow: "P30D", ViewType: "flow"}, backend.saved[0])
	q, err := board.store.GetQuery()
	require.NoError(t, err)
	assert.Equal(t, "Mine", q.ViewName)
	assert.Contains(t, board.toast, "Mine")

	t.Run("empty name", func(t *testing.T) {
		b, _ := press(t, board, "s")
		b.nameInput.SetValue("")
		b, cmd := press(t, b, "enter")
		assert.Nil(t, cmd)
		assert.Equal(t, "View name is required", b.errorToast)
	})
}

func TestBoardModel_Export(t *testing.T) {
	backend := &fakeBackend{export: service.Export{FileName: "flow-canvas-export.csv", Content: `"Key"`}}
	board := createTestBoard(t, backend)

	_, cmd := press(t, board, "e")
	require.NotNil(t, cmd)
	msg, ok := cmd().(exportedMsg)
	require.True(t, ok)

	assert.Equal(t, filepath.Join(board.opts.ExportDir, "flow-canvas-export.csv"), msg.path)
	raw, err := os.ReadFile(msg.path)
	require.NoError(t, err)
	assert.Equal(t, `"Key"`, string(raw))
	assert.Equal(t, "project = AYB", backend.exportReq.JQL)
}

func TestBoardModel_View(t *testing.T) {
	board := createTestBoard(t, &fakeBackend{})
	board.width, board.height = 120, 30

	view := board.View()
	assert.Contains(t, view, "project = AYB")
	assert.Contains(t, view, "Backlog (2)")
	assert.Contains(t, view, "In Progress (1)")
	assert.Contains(t, view, "AYB-2")
	assert.Contains(t, view, "4 issues")

	t.Run("help overlay", func(t *testing.T) {
		b, _ := press(t, board, "?")
		assert.Contains(t, b.View(), "distribution")
	})

	t.Run("empty result", func(t *testing.T) {
		model, _ := board.Update(boardLoadedMsg{})
		assert.Contains(t, model.View(), "No issues match")
	})
}

func TestFormatCardText(t *testing.T) {
	card := &store.Card{Key: "AYB-1", Summary: "A very long summary that will not fit in the column", AgeDays: 12.7}
	text := formatCardText(card, 30)
	assert.Contains(t, text, "AYB-1")
	assert.Contains(t, text, "…")
	assert.Contains(t, text, "12d")
}
