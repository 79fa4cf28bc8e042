package aggregate

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// issue builds a test issue from a JSON fields object.
func issue(t *testing.T, key, fields string) domain.Issue {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(fields), &raw))
	return domain.Issue{Key: key, Fields: raw}
}

func withStatus(t *testing.T, key, status string) domain.Issue {
	return issue(t, key, fmt.Sprintf(`{"status":{"name":%q}}`, status))
}

func defaultGroups() domain.StatusGroups {
	return domain.DefaultAdminConfig().StatusGroups
}

func TestPickStatusGroup(t *testing.T) {
	groups := defaultGroups()

	assert.Equal(t, domain.LaneDone, PickStatusGroup("Done", groups))
	assert.Equal(t, domain.LaneInProgress, PickStatusGroup("In Progress", groups))
	assert.Equal(t, domain.LaneBacklog, PickStatusGroup("To Do", groups))
	assert.Equal(t, domain.LaneOther, PickStatusGroup("Review", groups))

	t.Run("case sensitive", func(t *testing.T) {
		assert.Equal(t, domain.LaneOther, PickStatusGroup("done", groups))
	})

	t.Run("done wins over other groups", func(t *testing.T) {
		overlapping := domain.StatusGroups{
			Backlog:    []string{"Done"},
			InProgress: []string{"Done"},
			Done:       []string{"Done"},
		}
		assert.Equal(t, domain.LaneDone, PickStatusGroup("Done", overlapping))
	})

	t.Run("in progress wins over backlog", func(t *testing.T) {
		overlapping := domain.StatusGroups{
			Backlog:    []string{"Triage"},
			InProgress: []string{"Triage"},
		}
		assert.Equal(t, domain.LaneInProgress, PickStatusGroup("Triage", overlapping))
	})

	t.Run("empty name is Unknown", func(t *testing.T) {
		assert.Equal(t, domain.LaneOther, PickStatusGroup("", groups))
		assert.Equal(t, domain.LaneBacklog, PickStatusGroup("", domain.StatusGroups{Backlog: []string{"Unknown"}}))
	})
}

func TestFlow(t *testing.T) {
	issues := []domain.Issue{
		withStatus(t, "A-1", "To Do"),
		withStatus(t, "A-2", "In Progress"),
		withStatus(t, "A-3", "Done"),
		withStatus(t, "A-4", "Done"),
		withStatus(t, "A-5", "Blocked"),
		issue(t, "A-6", `{}`),
	}

	agg, err := Flow(issues, Classifier{Groups: defaultGroups()})
	require.NoError(t, err)

	assert.Equal(t, "flow", agg.Type)
	assert.Equal(t, 6, agg.TotalIssues)
	assert.Equal(t, domain.LaneCounts{Backlog: 1, InProgress: 1, Done: 2, Other: 2}, agg.Buckets)
	assert.Equal(t, agg.TotalIssues, agg.Buckets.Sum())

	t.Run("empty", func(t *testing.T) {
		agg, err := Flow(nil, Classifier{Groups: defaultGroups()})
		require.NoError(t, err)
		assert.Equal(t, 0, agg.TotalIssues)
		assert.Equal(t, domain.LaneCounts{}, agg.Buckets)
	})
}

func TestClassifier_CategoryFallback(t *testing.T) {
	review := issue(t, "A-1", `{"status":{"name":"Review","statusCategory":{"key":"indeterminate","name":"In Progress"}}}`)
	shipped := issue(t, "A-2", `{"status":{"name":"Shipped","statusCategory":{"key":"done","name":"Done"}}}`)
	fresh := issue(t, "A-3", `{"status":{"name":"Idea","statusCategory":{"key":"new","name":"To Do"}}}`)
	odd := issue(t, "A-4", `{"status":{"name":"Odd","statusCategory":{"key":"undefined"}}}`)
	// configured name beats the category
	todo := issue(t, "A-5", `{"status":{"name":"To Do","statusCategory":{"key":"done"}}}`)

	t.Run("enabled", func(t *testing.T) {
		c := Classifier{Groups: defaultGroups(), CategoryFallback: true}
		assert.Equal(t, domain.LaneInProgress, c.Lane(review))
		assert.Equal(t, domain.LaneDone, c.Lane(shipped))
		assert.Equal(t, domain.LaneBacklog, c.Lane(fresh))
		assert.Equal(t, domain.LaneOther, c.Lane(odd))
		assert.Equal(t, domain.LaneBacklog, c.Lane(todo))
	})

	t.Run("disabled", func(t *testing.T) {
		c := Classifier{Groups: defaultGroups()}
		assert.Equal(t, domain.LaneOther, c.Lane(review))
		assert.Equal(t, domain.LaneOther, c.Lane(shipped))
	})

	t.Run("from config", func(t *testing.T) {
		c := NewClassifier(domain.DefaultAdminConfig())
		assert.False(t, c.CategoryFallback)
		assert.Equal(t, []string{"Done"}, c.Groups.Done)
	})
}

func TestDistribution(t *testing.T) {
	issues := []domain.Issue{
		issue(t, "A-1", `{"priority":{"name":"High"},"customfield_1":"Platform","customfield_2":3}`),
		issue(t, "A-2", `{"priority":{"name":"High"},"customfield_1":["Web","Mobile"],"customfield_2":5}`),
		issue(t, "A-3", `{"customfield_1":{"value":"Platform","id":"10"},"customfield_2":2.5}`),
		issue(t, "A-4", `{"priority":{"name":"Low"},"customfield_1":null}`),
		issue(t, "A-5", `{"priority":{"name":"Low"},"customfield_1":""}`),
	}

	t.Run("priority and team", func(t *testing.T) {
		agg := Distribution(issues, "customfield_1", "")

		assert.Equal(t, "distribution", agg.Type)
		assert.Equal(t, 5, agg.TotalIssues)
		assert.Equal(t, map[string]int{"High": 2, "Low": 2, "Unspecified": 1}, agg.ByPriority)
		assert.Equal(t, map[string]int{"Platform": 2, "Web, Mobile": 1, "Unassigned": 2}, agg.ByTeam)
		assert.Nil(t, agg.PointsByTeam)
	})

	t.Run("no team field", func(t *testing.T) {
		agg := Distribution(issues, "", "")
		assert.Equal(t, map[string]int{"Unassigned": 5}, agg.ByTeam)
	})

	t.Run("points per team", func(t *testing.T) {
		agg := Distribution(issues, "customfield_1", "customfield_2")
		assert.Equal(t, map[string]float64{"Platform": 5.5, "Web, Mobile": 5}, agg.PointsByTeam)
	})

	t.Run("counts sum to total", func(t *testing.T) {
		agg := Distribution(issues, "customfield_1", "")
		sum := 0
		for _, n := range agg.ByPriority {
			sum += n
		}
		assert.Equal(t, agg.TotalIssues, sum)
	})
}

func TestLaneFilterJQL(t *testing.T) {
	groups := domain.StatusGroups{
		InProgress: []string{"In Progress", `Say "hi"`},
	}

	assert.Equal(t,
		`(project = AYB) AND (status in ("In Progress", "Say \"hi\""))`,
		LaneFilterJQL("project = AYB", domain.LaneInProgress, groups))

	t.Run("order by stays last", func(t *testing.T) {
		assert.Equal(t,
			`(assignee = currentUser()) AND (status in ("In Progress", "Say \"hi\"")) ORDER BY created ASC`,
			LaneFilterJQL("assignee = currentUser() ORDER BY created ASC", domain.LaneInProgress, groups))
	})

	t.Run("empty base", func(t *testing.T) {
		assert.Equal(t, `status in ("In Progress", "Say \"hi\"")`, LaneFilterJQL("", domain.LaneInProgress, groups))
	})

	t.Run("lane without statuses", func(t *testing.T) {
		assert.Equal(t, "project = AYB", LaneFilterJQL("project = AYB", domain.LaneDone, groups))
		assert.Equal(t, "project = AYB", LaneFilterJQL("project = AYB", domain.LaneOther, groups))
	})
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg := domain.DefaultAdminConfig()
	issues := []domain.Issue{
		withStatus(t, "A-1", "Done"),
		withStatus(t, "A-2", "To Do"),
	}

	t.Run("flow by default", func(t *testing.T) {
		agg, err := Build("", issues, cfg, now)
		require.NoError(t, err)
		assert.Equal(t, "flow", agg.Type)
		require.NotNil(t, agg.Buckets)
		assert.Equal(t, 1, agg.Buckets.Done)
		assert.Nil(t, agg.Canvas)
	})

	t.Run("flow ignores status category by default", func(t *testing.T) {
		closed := issue(t, "A-3", `{"status":{"name":"Closed","statusCategory":{"key":"done","name":"Done"}}}`)

		agg, err := Build("flow", []domain.Issue{closed}, cfg, now)
		require.NoError(t, err)
		require.NotNil(t, agg.Buckets)
		assert.Equal(t, domain.LaneCounts{Other: 1}, *agg.Buckets)

		optIn := cfg
		optIn.FieldMapping.StatusCategoryFallback = true
		agg, err = Build("flow", []domain.Issue{closed}, optIn, now)
		require.NoError(t, err)
		assert.Equal(t, domain.LaneCounts{Done: 1}, *agg.Buckets)
	})

	t.Run("unknown view falls back to flow", func(t *testing.T) {
		agg, err := Build("pie", issues, cfg, now)
		require.NoError(t, err)
		assert.Equal(t, "flow", agg.Type)
	})

	t.Run("distribution", func(t *testing.T) {
		agg, err := Build("distribution", issues, cfg, now)
		require.NoError(t, err)
		assert.Equal(t, "distribution", agg.Type)
		assert.Equal(t, map[string]int{"Unspecified": 2}, agg.ByPriority)
		assert.Nil(t, agg.Buckets)
	})

	t.Run("canvas", func(t *testing.T) {
		agg, err := Build("canvas", issues, cfg, now)
		require.NoError(t, err)
		assert.Equal(t, "canvas", agg.Type)
		require.NotNil(t, agg.Canvas)
		assert.Len(t, agg.Canvas.Points, 2)
		assert.Equal(t, 2, agg.TotalIssues)
	})
}
