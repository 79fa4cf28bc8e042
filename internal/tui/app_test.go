package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(backend *fakeBackend, opts Options) AppModel {
	return NewAppModel(backend, store.New(), context.Background(), opts)
}

// step feeds msg to the app and returns the updated model with its command.
func step(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	model, cmd := m.Update(msg)
	return model.(AppModel), cmd
}

func TestAppModel_PresetQueryOpensBoard(t *testing.T) {
	app := newTestApp(&fakeBackend{}, Options{JQL: "project = AYB", TimeWindow: "P7D"})

	msg := app.Init()()
	require.Equal(t, QuerySubmittedMsg{JQL: "project = AYB"}, msg)

	app, _ = step(t, app, msg)
	assert.Equal(t, ScreenBoard, app.Screen())
	q, err := app.store.GetQuery()
	require.NoError(t, err)
	assert.Equal(t, store.Query{JQL: "project = AYB", TimeWindow: "P7D"}, q)
}

func TestAppModel_NoViewsShowsQueryInput(t *testing.T) {
	app := newTestApp(&fakeBackend{}, Options{})

	msg := app.Init()()
	app, _ = step(t, app, msg)
	assert.Equal(t, ScreenQuery, app.Screen())
	assert.Contains(t, app.View(), "New query")
}

func TestAppModel_ViewPickerFlow(t *testing.T) {
	backend := &fakeBackend{views: []domain.SavedView{
		{Name: "Mine", JQL: "assignee = currentUser()", TimeWindow: "P30D", ViewType: "flow"},
	}}
	app := newTestApp(backend, Options{})

	app, _ = step(t, app, app.Init()())
	require.Equal(t, ScreenViewPicker, app.Screen())
	assert.Contains(t, app.View(), "Mine")

	// first entry is "new query"; move down to the saved view
	app, _ = step(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app, cmd := step(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	selected := cmd()
	require.Equal(t, ViewSelectedMsg{View: backend.views[0]}, selected)

	app, _ = step(t, app, selected)
	assert.Equal(t, ScreenBoard, app.Screen())
	q, err := app.store.GetQuery()
	require.NoError(t, err)
	assert.Equal(t, store.Query{ViewName: "Mine", JQL: "assignee = currentUser()", TimeWindow: "P30D"}, q)
}

func TestAppModel_QueryInputSubmits(t *testing.T) {
	app := newTestApp(&fakeBackend{}, Options{})
	app, _ = step(t, app, NewQueryMsg{})
	require.Equal(t, ScreenQuery, app.Screen())

	app, cmd := step(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, app.View(), "JQL is required")

	for _, r := range "x = 1" {
		app, _ = step(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd = step(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, QuerySubmittedMsg{JQL: "x = 1"}, cmd())
}

func TestAppModel_DetailRoundTrip(t *testing.T) {
	app := newTestApp(&fakeBackend{}, Options{
		JQL:       "x = 1",
		BrowseURL: func(key string) string { return "https://jira/browse/" + key },
	})
	app, _ = step(t, app, app.Init()())

	card := &store.Card{Key: "AYB-9", Summary: "Detail me", Lane: domain.LaneDone}
	app, _ = step(t, app, openDetailMsg{card: card})
	require.Equal(t, ScreenDetail, app.Screen())
	assert.Contains(t, app.View(), "AYB-9")
	assert.Contains(t, app.View(), "https://jira/browse/AYB-9")

	app, _ = step(t, app, closeDetailMsg{})
	assert.Equal(t, ScreenBoard, app.Screen())
	_, ok := app.currentModel.(*BoardModel)
	assert.True(t, ok)
}

func TestAppModel_ListViewsError(t *testing.T) {
	app := newTestApp(&fakeBackend{err: errors.New("store down")}, Options{})

	app, _ = step(t, app, app.Init()())
	assert.Contains(t, app.View(), "store down")
}

func TestAppModel_ChangeView(t *testing.T) {
	app := newTestApp(&fakeBackend{}, Options{JQL: "x = 1"})
	app, _ = step(t, app, app.Init()())

	app, cmd := step(t, app, changeViewMsg{})
	assert.Equal(t, ScreenLoading, app.Screen())
	require.NotNil(t, cmd)
	_, ok := cmd().(viewsLoadedMsg)
	assert.True(t, ok)
}
