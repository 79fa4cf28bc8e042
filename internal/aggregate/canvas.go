package aggregate

import (
	"math"
	"time"

	"github.com/h0rv/flowcanvas/internal/domain"
)

// laneY is the vertical band of each lane on the canvas.
var laneY = map[domain.Lane]float64{
	domain.LaneBacklog:    0.2,
	domain.LaneInProgress: 0.45,
	domain.LaneDone:       0.7,
	domain.LaneOther:      0.9,
}

const (
	jitterSpread = 0.08
	minY         = 0.05
	maxY         = 0.95
)

// WorkItems reduces issues to plotted work items aged against now. Issues with a
// missing or malformed creation time are treated as created now.
func WorkItems(issues []domain.Issue, c Classifier, now time.Time) []domain.WorkItem {
	items := make([]domain.WorkItem, 0, len(issues))
	for _, issue := range issues {
		created, ok := domain.ParseTime(issue.Created())
		if !ok {
			created = now
		}
		status := issue.StatusName()
		if status == "" {
			status = UnknownStatus
		}
		items = append(items, domain.WorkItem{
			Key:      issue.Key,
			Summary:  issue.Summary(),
			Status:   status,
			Priority: issue.PriorityName(),
			AgeDays:  math.Max(0, now.Sub(created).Hours()/24),
			Lane:     c.Lane(issue),
		})
	}
	return items
}

// Canvas places work items on the unit square: x is age relative to the oldest item
// (at least one day), y is the lane band offset by a jitter derived from the issue key.
func Canvas(items []domain.WorkItem) domain.CanvasDataset {
	maxAge := 1.0
	for _, w := range items {
		maxAge = math.Max(maxAge, w.AgeDays)
	}

	dataset := domain.CanvasDataset{
		Points:     make([]domain.CanvasPoint, 0, len(items)),
		MaxAgeDays: maxAge,
	}
	for _, w := range items {
		dataset.LaneCounts.Add(w.Lane)

		base, ok := laneY[w.Lane]
		if !ok {
			base = laneY[domain.LaneOther]
		}
		y := base + Jitter(w.Key+":"+string(w.Lane))*jitterSpread

		dataset.Points = append(dataset.Points, domain.CanvasPoint{
			X:        math.Min(1, w.AgeDays/maxAge),
			Y:        math.Max(minY, math.Min(maxY, y)),
			Lane:     w.Lane,
			IssueKey: w.Key,
			Summary:  w.Summary,
			Status:   w.Status,
			Priority: w.Priority,
			AgeDays:  w.AgeDays,
		})
	}
	return dataset
}

// Jitter maps seed to a deterministic offset in [-0.5, 0.5) using the same 32-bit rolling
// hash as cache keys.
func Jitter(seed string) float64 {
	return float64(domain.Hash32(seed)%1000)/1000 - 0.5
}

// categoryColors are the display colors of the tracker's status categories.
var categoryColors = map[string]string{
	"new":           "#8C9CB8",
	"indeterminate": "#0065FF",
	"done":          "#36B37E",
}

const defaultCategoryColor = "#6B778C"

// Categories counts issues per status category in first-seen order. Issues without a
// status category are skipped.
func Categories(issues []domain.Issue) []domain.CategorySlice {
	out := make([]domain.CategorySlice, 0, len(categoryColors))
	index := make(map[string]int)
	for _, issue := range issues {
		key := issue.StatusCategoryKey()
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			out[i].Count++
			continue
		}
		color, ok := categoryColors[key]
		if !ok {
			color = defaultCategoryColor
		}
		name := issue.StatusCategoryName()
		if name == "" {
			name = key
		}
		index[key] = len(out)
		out = append(out, domain.CategorySlice{Name: name, Key: key, Color: color, Count: 1})
	}
	return out
}
