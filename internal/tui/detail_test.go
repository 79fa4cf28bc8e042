package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailModel_WrapsSummary(t *testing.T) {
	card := &store.Card{
		Key:      "AYB-1",
		Summary:  strings.Repeat("word ", 30),
		Status:   "In Progress",
		Priority: "High",
		Lane:     domain.LaneInProgress,
		AgeDays:  4.3,
	}
	m := NewDetailModel(card, "")

	body := m.renderBody(20)
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "word") {
			assert.LessOrEqual(t, len(strings.TrimRight(line, " ")), 20)
		}
	}
	assert.Contains(t, body, "In Progress")
	assert.Contains(t, body, "4.3 days")
	assert.NotContains(t, body, "URL")
}

func TestDetailModel_Keys(t *testing.T) {
	var opened string
	openURL = func(url string) error { opened = url; return nil }
	t.Cleanup(func() { openURL = defaultOpenURL })

	m := NewDetailModel(&store.Card{Key: "AYB-1"}, "https://jira/browse/AYB-1")

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	assert.Equal(t, "https://jira/browse/AYB-1", opened)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, closeDetailMsg{}, cmd())
}

func TestRenderDistribution(t *testing.T) {
	out := renderDistribution(domain.Aggregate{
		Type:         domain.ViewDistribution,
		TotalIssues:  5,
		ByPriority:   map[string]int{"Low": 1, "High": 4},
		ByTeam:       map[string]int{},
		PointsByTeam: map[string]float64{"Core": 2.5},
	}, 80)

	assert.Contains(t, out, "5 issues")
	assert.Less(t, strings.Index(out, "High"), strings.Index(out, "Low"), "largest first")
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "Points by team")
	assert.Contains(t, out, "2.5")
}

func TestSortedBars(t *testing.T) {
	bars := sortedBars(map[string]int{"b": 2, "a": 2, "c": 5})
	require.Len(t, bars, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{bars[0].label, bars[1].label, bars[2].label})
}
