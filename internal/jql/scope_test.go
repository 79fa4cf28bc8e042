package jql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitOrderBy(t *testing.T) {
	t.Run("where and order", func(t *testing.T) {
		where, order := SplitOrderBy("assignee = currentUser() ORDER BY updated DESC")
		assert.Equal(t, "assignee = currentUser()", where)
		assert.Equal(t, "ORDER BY updated DESC", order)
	})

	t.Run("case insensitive", func(t *testing.T) {
		where, order := SplitOrderBy("status = Done order   by created asc")
		assert.Equal(t, "status = Done", where)
		assert.Equal(t, "order   by created asc", order)
	})

	t.Run("no order", func(t *testing.T) {
		where, order := SplitOrderBy("  status = Done  ")
		assert.Equal(t, "status = Done", where)
		assert.Empty(t, order)
	})

	t.Run("empty", func(t *testing.T) {
		where, order := SplitOrderBy("   ")
		assert.Empty(t, where)
		assert.Empty(t, order)
	})

	t.Run("order only", func(t *testing.T) {
		where, order := SplitOrderBy("ORDER BY rank")
		assert.Empty(t, where)
		assert.Equal(t, "ORDER BY rank", order)
	})
}

func TestCompose(t *testing.T) {
	s := New()

	testCases := []struct {
		name    string
		raw     string
		project string
		want    string
	}{
		{
			name:    "empty input with project",
			raw:     "",
			project: "AYB",
			want:    `project = "AYB" AND updated >= -90d ORDER BY updated DESC`,
		},
		{
			name:    "predicate is wrapped and order relocated",
			raw:     "assignee = currentUser() ORDER BY updated DESC",
			project: "AYB",
			want:    `project = "AYB" AND (assignee = currentUser()) AND updated >= -90d ORDER BY updated DESC`,
		},
		{
			name: "empty input without project",
			want: "updated >= -90d ORDER BY updated DESC",
		},
		{
			name:    "existing project restriction is kept",
			raw:     "project in (AYB, OPS) AND status = Done",
			project: "AYB",
			want:    "(project in (AYB, OPS) AND status = Done) AND updated >= -90d ORDER BY updated DESC",
		},
		{
			name: "order only input",
			raw:  "ORDER BY created ASC",
			want: "updated >= -90d ORDER BY created ASC",
		},
		{
			name: "bound is structural even with a date predicate",
			raw:  "created >= -7d",
			want: "(created >= -7d) AND updated >= -90d ORDER BY updated DESC",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.Compose(tc.raw, tc.project))
		})
	}
}

func TestCompose_ConditionalBound(t *testing.T) {
	s := Scoper{DaysBack: 30, AlwaysBoundTime: false}

	t.Run("date predicate present", func(t *testing.T) {
		assert.Equal(t, "(created >= -7d) ORDER BY updated DESC", s.Compose("created >= -7d", ""))
	})

	t.Run("no date predicate", func(t *testing.T) {
		assert.Equal(t, "(status = Done) AND updated >= -30d ORDER BY updated DESC", s.Compose("status = Done", ""))
	})
}

func TestCompose_Reapplied(t *testing.T) {
	s := Scoper{DaysBack: 90, AlwaysBoundTime: false}
	once := s.Compose("assignee = currentUser()", "AYB")
	twice := s.Compose(once, "AYB")

	// The second pass adds neither a project clause nor another window.
	assert.Equal(t, 1, countOf(twice, `project = "AYB"`))
	assert.Equal(t, 1, countOf(twice, "updated >= -90d"))
	assert.Equal(t, 1, countOf(twice, "ORDER BY"))
}

func countOf(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}

func TestHasProjectRestriction(t *testing.T) {
	assert.True(t, HasProjectRestriction(`project = "AYB"`))
	assert.True(t, HasProjectRestriction("PROJECT in (A, B)"))
	assert.True(t, HasProjectRestriction("project=AYB"))
	assert.False(t, HasProjectRestriction("projectLead = me"))
	assert.False(t, HasProjectRestriction("status = Done"))
}

func TestHasTimeBound(t *testing.T) {
	assert.True(t, HasTimeBound("updated >= -1w"))
	assert.True(t, HasTimeBound("resolutiondate<now()"))
	assert.False(t, HasTimeBound("status = Done"))
}

func TestExtractProjectKey(t *testing.T) {
	assert.Equal(t, "AYB", ExtractProjectKey(`project = "ayb" AND status = Done`))
	assert.Equal(t, "OPS_2", ExtractProjectKey("project=OPS_2"))
	assert.Empty(t, ExtractProjectKey("project in (A, B)"))
}

func TestDaysFromWindow(t *testing.T) {
	assert.Equal(t, 30, DaysFromWindow("P30D"))
	assert.Equal(t, 14, DaysFromWindow("p2w"))
	assert.Equal(t, DefaultDaysBack, DaysFromWindow(""))
	assert.Equal(t, DefaultDaysBack, DaysFromWindow("PT5H"))
	assert.Equal(t, DefaultDaysBack, DaysFromWindow("P0D"))
}

func TestFallbackCandidates(t *testing.T) {
	s := Scoper{DaysBack: 90, AlwaysBoundTime: false}

	t.Run("with project", func(t *testing.T) {
		got := s.FallbackCandidates("created >= -7d", "AYB")
		require.Len(t, got, 4)
		assert.Equal(t, `project = "AYB" AND (created >= -7d) AND updated >= -90d ORDER BY updated DESC`, got[0])
		assert.Equal(t, `(project = "AYB" AND (created >= -7d)) AND updated >= -90d ORDER BY updated DESC`, got[1])
		assert.Equal(t, `project = "AYB" AND updated >= -90d ORDER BY updated DESC`, got[2])
		assert.Equal(t, "project IS NOT EMPTY AND updated >= -90d ORDER BY updated DESC", got[3])
	})

	t.Run("without project", func(t *testing.T) {
		got := s.FallbackCandidates("status = Done", "")
		require.Len(t, got, 3)
		assert.Equal(t, "project IS NOT EMPTY AND updated >= -90d ORDER BY updated DESC", got[2])
	})

	t.Run("always bound skips the rejected query", func(t *testing.T) {
		bounded := New()
		primary := bounded.Compose("status = Done", "AYB")

		got := bounded.FallbackCandidates("status = Done", "AYB")
		require.Len(t, got, 3)
		assert.NotContains(t, got, primary)
		assert.Equal(t, `(project = "AYB" AND (status = Done) AND updated >= -90d) AND updated >= -90d ORDER BY updated DESC`, got[0])
		assert.Equal(t, `project = "AYB" AND updated >= -90d ORDER BY updated DESC`, got[1])
	})

	t.Run("empty query drops the repeated project window", func(t *testing.T) {
		got := New().FallbackCandidates("", "AYB")
		assert.Equal(t, []string{
			`(project = "AYB" AND updated >= -90d) AND updated >= -90d ORDER BY updated DESC`,
			"project IS NOT EMPTY AND updated >= -90d ORDER BY updated DESC",
		}, got)
	})
}
