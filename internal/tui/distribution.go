package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/muesli/reflow/truncate"
)

const labelWidth = 20

var barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

type bar struct {
	label string
	value float64
}

// sortedBars orders counts by value descending, then label.
func sortedBars[V int | float64](counts map[string]V) []bar {
	bars := make([]bar, 0, len(counts))
	for label, v := range counts {
		bars = append(bars, bar{label: label, value: float64(v)})
	}
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].value != bars[j].value {
			return bars[i].value > bars[j].value
		}
		return bars[i].label < bars[j].label
	})
	return bars
}

// renderBars draws one horizontal bar per entry, scaled to the largest value.
func renderBars(title string, bars []bar, width int) string {
	lines := []string{titleStyle.Render(title)}
	if len(bars) == 0 {
		return strings.Join(append(lines, dimStyle.Render("  (none)")), "\n")
	}

	peak := bars[0].value
	room := max(width-labelWidth-12, 5)
	for _, b := range bars {
		n := 0
		if peak > 0 {
			n = max(int(b.value/peak*float64(room)), 1)
		}
		label := truncate.StringWithTail(b.label, labelWidth, "…")
		lines = append(lines, fmt.Sprintf("  %-*s %s %s",
			labelWidth, label, barStyle.Render(strings.Repeat("█", n)), formatValue(b.value)))
	}
	return strings.Join(lines, "\n")
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// renderDistribution renders the priority and team breakdowns of a distribution aggregate.
func renderDistribution(agg domain.Aggregate, width int) string {
	sections := []string{
		dimStyle.Render(fmt.Sprintf("%d issues  [d/esc] back to lanes", agg.TotalIssues)),
		renderBars("By priority", sortedBars(agg.ByPriority), width),
		renderBars("By team", sortedBars(agg.ByTeam), width),
	}
	if len(agg.PointsByTeam) > 0 {
		sections = append(sections, renderBars("Points by team", sortedBars(agg.PointsByTeam), width))
	}
	return strings.Join(sections, "\n\n")
}
