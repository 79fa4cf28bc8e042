// Package domain defines the normalized types shared by the query, fetch, cache and
// aggregation layers. These types are independent of any transport or storage backend.
package domain

import "time"

// Lane is the flow bucket an issue is classified into.
type Lane string

// Lane values in display order.
const (
	LaneBacklog    Lane = "backlog"
	LaneInProgress Lane = "inProgress"
	LaneDone       Lane = "done"
	LaneOther      Lane = "other"
)

// Lanes lists every lane in display order.
var Lanes = []Lane{LaneBacklog, LaneInProgress, LaneDone, LaneOther}

// View types accepted by the aggregate query.
const (
	ViewFlow         = "flow"
	ViewDistribution = "distribution"
	ViewCanvas       = "canvas"
)

// DefaultTimeWindow is the ISO-8601 window used when a request names none.
const DefaultTimeWindow = "P90D"

// SearchResult is the outcome of a capped, paginated search.
type SearchResult struct {
	Issues     []Issue
	Total      *int   // nil when the upstream never reported a total
	AppliedJQL string // query actually accepted by the upstream
}

// PageResult is a single page returned by a search transport.
type PageResult struct {
	Issues        []Issue
	Total         *int
	NextPageToken string
	IsLast        bool
}

// LaneCounts tallies issues per lane.
type LaneCounts struct {
	Backlog    int `json:"backlog"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
	Other      int `json:"other"`
}

// Add increments the counter for lane.
func (c *LaneCounts) Add(lane Lane) {
	switch lane {
	case LaneBacklog:
		c.Backlog++
	case LaneInProgress:
		c.InProgress++
	case LaneDone:
		c.Done++
	default:
		c.Other++
	}
}

// Get returns the count for lane.
func (c LaneCounts) Get(lane Lane) int {
	switch lane {
	case LaneBacklog:
		return c.Backlog
	case LaneInProgress:
		return c.InProgress
	case LaneDone:
		return c.Done
	default:
		return c.Other
	}
}

// Sum returns the total across all lanes.
func (c LaneCounts) Sum() int {
	return c.Backlog + c.InProgress + c.Done + c.Other
}

// FlowAggregate counts issues per lane.
type FlowAggregate struct {
	Type        string     `json:"type"`
	TotalIssues int        `json:"totalIssues"`
	Buckets     LaneCounts `json:"buckets"`
}

// DistributionAggregate counts issues by priority and by team.
type DistributionAggregate struct {
	Type         string             `json:"type"`
	TotalIssues  int                `json:"totalIssues"`
	ByPriority   map[string]int     `json:"byPriority"`
	ByTeam       map[string]int     `json:"byTeam"`
	PointsByTeam map[string]float64 `json:"pointsByTeam,omitempty"`
}

// WorkItem is an issue reduced to what the flow canvas plots.
type WorkItem struct {
	Key      string  `json:"key"`
	Summary  string  `json:"summary"`
	Status   string  `json:"status"`
	Priority string  `json:"priority"`
	AgeDays  float64 `json:"ageDays"`
	Lane     Lane    `json:"lane"`
}

// CanvasPoint is a plotted work item. X is normalized age, Y the jittered lane position.
type CanvasPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Lane     Lane    `json:"lane"`
	IssueKey string  `json:"issueKey"`
	Summary  string  `json:"summary"`
	Status   string  `json:"status"`
	Priority string  `json:"priority"`
	AgeDays  float64 `json:"ageDays"`
}

// CategorySlice is one status category share of a result set.
type CategorySlice struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// CanvasDataset is the flow canvas scatter plot data.
type CanvasDataset struct {
	Points     []CanvasPoint   `json:"points"`
	LaneCounts LaneCounts      `json:"laneCounts"`
	MaxAgeDays float64         `json:"maxAgeDays"`
	Categories []CategorySlice `json:"categories,omitempty"`
}

// Aggregate is the envelope returned to callers; exactly one section is set, matching Type.
type Aggregate struct {
	Type         string             `json:"type"`
	TotalIssues  int                `json:"totalIssues"`
	Buckets      *LaneCounts        `json:"buckets,omitempty"`
	ByPriority   map[string]int     `json:"byPriority,omitempty"`
	ByTeam       map[string]int     `json:"byTeam,omitempty"`
	PointsByTeam map[string]float64 `json:"pointsByTeam,omitempty"`
	Canvas       *CanvasDataset     `json:"canvas,omitempty"`
}

// IssueSummary is the compact issue row returned by list and sample endpoints.
type IssueSummary struct {
	Key      string `json:"key"`
	Summary  string `json:"summary"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Updated  string `json:"updated,omitempty"`
}

// AggregateMeta describes how an aggregate was produced.
type AggregateMeta struct {
	SourceCount    int    `json:"sourceCount"`
	TotalAvailable int    `json:"totalAvailable"`
	Truncated      bool   `json:"truncated"`
	JQLRequested   string `json:"jqlRequested"`
	JQLApplied     string `json:"jqlApplied"`
	GeneratedAt    string `json:"generatedAt"`
	CacheHit       bool   `json:"cacheHit"`
}

// AggregateResult is the payload of a queryAggregate call and the unit stored in the cache.
type AggregateResult struct {
	Aggregate    Aggregate      `json:"aggregate"`
	SampleIssues []IssueSummary `json:"sampleIssues"`
	Meta         AggregateMeta  `json:"meta"`
}

// FieldMapping maps logical fields onto tracker custom field ids. StatusCategoryFallback
// is off until an admin enables it; flow lanes then come from name membership alone.
type FieldMapping struct {
	Team                   string `json:"team"`
	Points                 string `json:"points"`
	StatusCategoryFallback bool   `json:"statusCategoryFallback"`
}

// StatusGroups lists the status names that belong to each configured lane.
type StatusGroups struct {
	Backlog    []string `json:"backlog"`
	InProgress []string `json:"inProgress"`
	Done       []string `json:"done"`
}

// Names returns the configured status names for lane, or nil for LaneOther.
func (g StatusGroups) Names(lane Lane) []string {
	switch lane {
	case LaneBacklog:
		return g.Backlog
	case LaneInProgress:
		return g.InProgress
	case LaneDone:
		return g.Done
	default:
		return nil
	}
}

// AdminConfig is the admin-owned configuration record. It is overwritten whole on save.
type AdminConfig struct {
	AdminAccountIDs   []string     `json:"adminAccountIds"`
	FieldMapping      FieldMapping `json:"fieldMapping"`
	StatusGroups      StatusGroups `json:"statusGroups"`
	CacheTTLSeconds   int          `json:"cacheTtlSeconds"`
	MaxIssuesPerQuery int          `json:"maxIssuesPerQuery"`
}

// DefaultAdminConfig returns the configuration used before an admin saves one.
func DefaultAdminConfig() AdminConfig {
	return AdminConfig{
		AdminAccountIDs: []string{},
		StatusGroups: StatusGroups{
			Backlog:    []string{"To Do"},
			InProgress: []string{"In Progress"},
			Done:       []string{"Done"},
		},
		CacheTTLSeconds:   900,
		MaxIssuesPerQuery: 2000,
	}
}

// Caller is the identity established by the host for the current request.
type Caller struct {
	AccountID  string
	CloudID    string
	ProjectKey string // project the request was issued from, if any
}

// SavedView is a per-caller named query preset.
type SavedView struct {
	Name       string `json:"name"`
	JQL        string `json:"jql"`
	TimeWindow string `json:"timeWindow"`
	ViewType   string `json:"viewType"`
	UpdatedAt  string `json:"updatedAt"`
}

// PerfSample records the cost of the last aggregate request of a caller.
type PerfSample struct {
	Op         string `json:"op"`
	CacheHit   bool   `json:"cacheHit"`
	ElapsedMs  int64  `json:"elapsedMs"`
	IssueCount int    `json:"issueCount,omitempty"`
	TS         string `json:"ts"`
}

// AuditEvent is an entry of the mutation audit trail.
type AuditEvent struct {
	TS      string            `json:"ts"`
	Type    string            `json:"type"`
	User    string            `json:"user"`
	Details map[string]string `json:"details,omitempty"`
}

// timestampLayout is RFC 3339 with millisecond precision in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t the way records in this package are stamped.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
