// Package aggregate folds issue lists into the flow, distribution and canvas views.
// Everything here is a pure function of its inputs.
package aggregate

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/jql"
)

// ErrBucketMismatch means the lane counts of a flow aggregate do not add up to its total.
var ErrBucketMismatch = errors.New("lane counts do not sum to total issues")

// Placeholder labels for missing values.
const (
	UnknownStatus       = "Unknown"
	UnspecifiedPriority = "Unspecified"
	UnassignedTeam      = "Unassigned"
)

// PickStatusGroup assigns a status name to a lane. A name listed in several groups goes to
// the first of done, inProgress, backlog; unlisted names go to other. An empty name is
// looked up as "Unknown".
func PickStatusGroup(name string, groups domain.StatusGroups) domain.Lane {
	if name == "" {
		name = UnknownStatus
	}
	switch {
	case slices.Contains(groups.Done, name):
		return domain.LaneDone
	case slices.Contains(groups.InProgress, name):
		return domain.LaneInProgress
	case slices.Contains(groups.Backlog, name):
		return domain.LaneBacklog
	default:
		return domain.LaneOther
	}
}

// Classifier assigns issues to lanes by status name and, optionally, by the tracker's
// status category when the name matches no configured group.
type Classifier struct {
	Groups           domain.StatusGroups
	CategoryFallback bool
}

// NewClassifier builds the classifier configured by cfg.
func NewClassifier(cfg domain.AdminConfig) Classifier {
	return Classifier{
		Groups:           cfg.StatusGroups,
		CategoryFallback: cfg.FieldMapping.StatusCategoryFallback,
	}
}

// categoryLanes maps tracker status category keys onto lanes.
var categoryLanes = map[string]domain.Lane{
	"new":           domain.LaneBacklog,
	"indeterminate": domain.LaneInProgress,
	"done":          domain.LaneDone,
}

// Lane returns the lane for issue.
func (c Classifier) Lane(issue domain.Issue) domain.Lane {
	lane := PickStatusGroup(issue.StatusName(), c.Groups)
	if lane != domain.LaneOther || !c.CategoryFallback {
		return lane
	}
	if fallback, ok := categoryLanes[issue.StatusCategoryKey()]; ok {
		return fallback
	}
	return lane
}

// Flow counts issues per lane.
func Flow(issues []domain.Issue, c Classifier) (domain.FlowAggregate, error) {
	var buckets domain.LaneCounts
	for _, issue := range issues {
		buckets.Add(c.Lane(issue))
	}
	if buckets.Sum() != len(issues) {
		return domain.FlowAggregate{}, fmt.Errorf("%w: %d != %d", ErrBucketMismatch, buckets.Sum(), len(issues))
	}
	return domain.FlowAggregate{
		Type:        domain.ViewFlow,
		TotalIssues: len(issues),
		Buckets:     buckets,
	}, nil
}

// Distribution counts issues by priority name and by team. The team is read from
// teamFieldID; when pointsFieldID is set, numeric points are summed per team as well.
func Distribution(issues []domain.Issue, teamFieldID, pointsFieldID string) domain.DistributionAggregate {
	agg := domain.DistributionAggregate{
		Type:        domain.ViewDistribution,
		TotalIssues: len(issues),
		ByPriority:  make(map[string]int),
		ByTeam:      make(map[string]int),
	}
	if pointsFieldID != "" {
		agg.PointsByTeam = make(map[string]float64)
	}

	for _, issue := range issues {
		priority := issue.PriorityName()
		if priority == "" {
			priority = UnspecifiedPriority
		}
		agg.ByPriority[priority]++

		team := UnassignedTeam
		if teamFieldID != "" {
			if v, ok := issue.LookupField(teamFieldID); ok {
				if label := teamLabel(v); label != "" {
					team = label
				}
			}
		}
		agg.ByTeam[team]++

		if pointsFieldID != "" {
			if v, ok := issue.LookupField(pointsFieldID); ok {
				if points, ok := v.(float64); ok {
					agg.PointsByTeam[team] += points
				}
			}
		}
	}
	return agg
}

// teamLabel renders a team field value. Arrays are joined with ", ", select options use
// their value or name, and falsy scalars render as "".
func teamLabel(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, elem := range t {
			if s := teamLabel(elem); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		for _, k := range []string{"value", "name", "displayName"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
		return ""
	case string:
		return t
	case float64:
		if t == 0 {
			return ""
		}
		return fmt.Sprint(t)
	case bool:
		if !t {
			return ""
		}
		return "true"
	default:
		return ""
	}
}

// LaneFilterJQL narrows base to the statuses configured for lane, keeping any ORDER BY
// at the end. Lanes without configured statuses return base unchanged.
func LaneFilterJQL(base string, lane domain.Lane, groups domain.StatusGroups) string {
	statuses := groups.Names(lane)
	if len(statuses) == 0 {
		return base
	}
	quoted := make([]string, len(statuses))
	for i, s := range statuses {
		quoted[i] = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	filter := fmt.Sprintf("status in (%s)", strings.Join(quoted, ", "))

	where, orderBy := jql.SplitOrderBy(base)
	if where != "" {
		filter = fmt.Sprintf("(%s) AND (%s)", where, filter)
	}
	return strings.TrimSpace(filter + " " + orderBy)
}

// Build produces the aggregate envelope for viewType. Unknown view types build the flow view.
func Build(viewType string, issues []domain.Issue, cfg domain.AdminConfig, now time.Time) (domain.Aggregate, error) {
	classifier := NewClassifier(cfg)

	switch viewType {
	case domain.ViewDistribution:
		d := Distribution(issues, cfg.FieldMapping.Team, cfg.FieldMapping.Points)
		return domain.Aggregate{
			Type:         d.Type,
			TotalIssues:  d.TotalIssues,
			ByPriority:   d.ByPriority,
			ByTeam:       d.ByTeam,
			PointsByTeam: d.PointsByTeam,
		}, nil
	case domain.ViewCanvas:
		canvas := Canvas(WorkItems(issues, classifier, now))
		canvas.Categories = Categories(issues)
		return domain.Aggregate{
			Type:        domain.ViewCanvas,
			TotalIssues: len(issues),
			Canvas:      &canvas,
		}, nil
	default:
		f, err := Flow(issues, classifier)
		if err != nil {
			return domain.Aggregate{}, err
		}
		return domain.Aggregate{
			Type:        f.Type,
			TotalIssues: f.TotalIssues,
			Buckets:     &f.Buckets,
		}, nil
	}
}
