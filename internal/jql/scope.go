// Package jql bounds caller-supplied JQL so the search endpoint never rejects it as
// unbounded, while keeping the caller's predicate and ordering intact.
package jql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultDaysBack is the rolling window applied when none is configured.
const DefaultDaysBack = 90

// DefaultOrderBy is appended when the caller supplied no ordering clause.
const DefaultOrderBy = "ORDER BY updated DESC"

var (
	orderByRe    = regexp.MustCompile(`(?i)\border\s+by\b`)
	projectRe    = regexp.MustCompile(`(?i)\bproject\s*(=|\bin\b)`)
	projectKeyRe = regexp.MustCompile(`(?i)\bproject\s*=\s*"?([A-Z][A-Z0-9_]+)"?`)
	timeBoundRe  = regexp.MustCompile(`(?i)\b(updated|created|resolved|resolutiondate)\s*[<>]=?`)
	timeWindowRe = regexp.MustCompile(`(?i)^P(\d+)([DW])$`)
)

// SplitOrderBy separates the where portion of q from its ORDER BY portion, located at
// the first case-insensitive "order by". Both parts are trimmed.
func SplitOrderBy(q string) (where, orderBy string) {
	text := strings.TrimSpace(q)
	if text == "" {
		return "", ""
	}
	loc := orderByRe.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	return strings.TrimSpace(text[:loc[0]]), strings.TrimSpace(text[loc[0]:])
}

// HasProjectRestriction reports whether q already restricts by project.
func HasProjectRestriction(q string) bool {
	return projectRe.MatchString(q)
}

// HasTimeBound reports whether q already compares a date field.
func HasTimeBound(q string) bool {
	return timeBoundRe.MatchString(q)
}

// ExtractProjectKey returns the key of a `project = KEY` clause in q, upper-cased, or "".
func ExtractProjectKey(q string) string {
	m := projectKeyRe.FindStringSubmatch(q)
	if len(m) < 2 {
		return ""
	}
	return strings.ToUpper(m[1])
}

// DaysFromWindow converts an ISO-8601 day or week window ("P90D", "P2W") into days.
// Anything else yields DefaultDaysBack.
func DaysFromWindow(window string) int {
	m := timeWindowRe.FindStringSubmatch(strings.TrimSpace(window))
	if m == nil {
		return DefaultDaysBack
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DefaultDaysBack
	}
	if strings.EqualFold(m[2], "W") {
		n *= 7
	}
	return n
}

// Scoper composes bounded queries.
//
// AlwaysBoundTime selects between the two known bounding rules: when true the rolling
// window is appended unconditionally, when false only if the query has no date comparison.
type Scoper struct {
	DaysBack        int
	AlwaysBoundTime bool
}

// New returns a Scoper with the default window and unconditional time bound.
func New() Scoper {
	return Scoper{DaysBack: DefaultDaysBack, AlwaysBoundTime: true}
}

// WithDays returns a copy of s using days as the rolling window.
func (s Scoper) WithDays(days int) Scoper {
	s.DaysBack = days
	return s
}

func (s Scoper) days() int {
	if s.DaysBack <= 0 {
		return DefaultDaysBack
	}
	return s.DaysBack
}

// Bound returns the rolling window clause, e.g. "updated >= -90d".
func (s Scoper) Bound() string {
	return fmt.Sprintf("updated >= -%dd", s.days())
}

func projectClause(key string) string {
	return fmt.Sprintf(`project = "%s"`, strings.ReplaceAll(key, `"`, `\"`))
}

// Compose bounds raw for the search endpoint. An empty raw yields the default window
// query, project scoped when projectKey is set. Compose never fails.
func (s Scoper) Compose(raw, projectKey string) string {
	where, orderBy := SplitOrderBy(raw)

	clauses := make([]string, 0, 3)
	if projectKey != "" && !HasProjectRestriction(where) {
		clauses = append(clauses, projectClause(projectKey))
	}
	if where != "" {
		clauses = append(clauses, "("+where+")")
	}
	if s.AlwaysBoundTime || !HasTimeBound(where) {
		clauses = append(clauses, s.Bound())
	}
	if orderBy == "" {
		orderBy = DefaultOrderBy
	}
	return strings.TrimSpace(strings.Join(clauses, " AND ") + " " + orderBy)
}

// ExplicitBound appends the rolling window to an already scoped query, keeping its order.
func (s Scoper) ExplicitBound(scoped string) string {
	where, orderBy := SplitOrderBy(scoped)
	if orderBy == "" {
		orderBy = DefaultOrderBy
	}
	if where == "" {
		return s.Bound() + " " + orderBy
	}
	return fmt.Sprintf("(%s) AND %s %s", where, s.Bound(), orderBy)
}

// ProjectWindow is the bare project + window query.
func (s Scoper) ProjectWindow(projectKey string) string {
	return fmt.Sprintf("%s AND %s %s", projectClause(projectKey), s.Bound(), DefaultOrderBy)
}

// GlobalWindow is the any-project window query, the loosest accepted form.
func (s Scoper) GlobalWindow() string {
	return fmt.Sprintf("project IS NOT EMPTY AND %s %s", s.Bound(), DefaultOrderBy)
}

// FallbackCandidates returns the relaxation sequence tried after Compose(raw, projectKey)
// was rejected as unbounded, loosest last: the query re-bounded unconditionally, the scoped
// query with an explicit bound appended, the bare project window (only with a project key),
// and the global window. Candidates equal to the rejected query or to an earlier candidate
// are left out.
func (s Scoper) FallbackCandidates(raw, projectKey string) []string {
	strict := s
	strict.AlwaysBoundTime = true

	primary := s.Compose(raw, projectKey)
	all := []string{
		strict.Compose(raw, projectKey),
		s.ExplicitBound(primary),
	}
	if projectKey != "" {
		all = append(all, s.ProjectWindow(projectKey))
	}
	all = append(all, s.GlobalWindow())

	seen := map[string]bool{primary: true}
	candidates := make([]string, 0, len(all))
	for _, c := range all {
		if seen[c] {
			continue
		}
		seen[c] = true
		candidates = append(candidates, c)
	}
	return candidates
}
