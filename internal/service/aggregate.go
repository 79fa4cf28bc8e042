package service

import (
	"context"
	"fmt"
	"time"

	"github.com/h0rv/flowcanvas/internal/aggregate"
	"github.com/h0rv/flowcanvas/internal/cache"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/search"
)

// AggregateRequest asks for an aggregate view of a query.
type AggregateRequest struct {
	JQL        string `json:"jql"`
	ProjectKey string `json:"projectKey,omitempty"`
	ViewType   string `json:"viewType,omitempty" validate:"omitempty,oneof=flow distribution canvas"`
	MaxIssues  int    `json:"maxIssues,omitempty" validate:"gte=0"`
	TimeWindow string `json:"timeWindow,omitempty"`
	// Lane narrows the query to the statuses configured for one lane.
	Lane string `json:"lane,omitempty" validate:"omitempty,oneof=backlog inProgress done other"`
}

// QueryAggregate runs req and folds the result into the requested view. Identical
// requests under the same configuration are answered from the cache until the
// configured TTL elapses. Every failure is reported as "queryAggregate failed: <cause>".
func (s *Service) QueryAggregate(ctx context.Context, caller domain.Caller, req AggregateRequest) (domain.AggregateResult, error) {
	result, err := s.queryAggregate(ctx, caller, req)
	if err != nil {
		return domain.AggregateResult{}, fmt.Errorf("queryAggregate failed: %w", err)
	}
	return result, nil
}

func (s *Service) queryAggregate(ctx context.Context, caller domain.Caller, req AggregateRequest) (domain.AggregateResult, error) {
	started := s.now()

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return domain.AggregateResult{}, err
	}
	query, err := requireJQL(req.JQL)
	if err != nil {
		return domain.AggregateResult{}, err
	}
	if req.Lane != "" {
		query = aggregate.LaneFilterJQL(query, domain.Lane(req.Lane), cfg.StatusGroups)
	}
	maxIssues := clampRequested(req.MaxIssues, cfg.MaxIssuesPerQuery, MinAggregateIssues, MaxAggregateIssues)

	projectKey := req.ProjectKey
	if projectKey == "" {
		projectKey = caller.ProjectKey
	}

	cacheKey := cache.BuildKey(caller.AccountID, cache.KeyInput{
		JQL:        query,
		ProjectKey: projectKey,
		TimeWindow: req.TimeWindow,
		ViewType:   req.ViewType,
	}, cfg)

	var cached domain.AggregateResult
	hit, err := s.cache.Read(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("cache read failed, treating as miss")
	}
	if hit {
		cached.Meta.CacheHit = true
		s.recordPerf(ctx, caller, domain.PerfSample{
			Op:        "queryAggregate",
			CacheHit:  true,
			ElapsedMs: s.now().Sub(started).Milliseconds(),
		})
		return cached, nil
	}

	found, err := s.fetcher.FetchWorkItems(ctx, search.Request{
		JQL:         query,
		ProjectKey:  projectKey,
		MaxIssues:   maxIssues,
		DaysBack:    daysBack(req.TimeWindow),
		ExtraFields: extraFields(cfg),
	})
	if err != nil {
		return domain.AggregateResult{}, err
	}

	now := s.now()
	agg, err := aggregate.Build(req.ViewType, found.Issues, cfg, now)
	if err != nil {
		return domain.AggregateResult{}, err
	}

	result := domain.AggregateResult{
		Aggregate:    agg,
		SampleIssues: sample(found.Issues),
		Meta:         meta(query, found, now),
	}

	if err := s.cache.Write(ctx, cacheKey, result, cfg.CacheTTLSeconds); err != nil {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("cache write failed")
	}
	s.recordPerf(ctx, caller, domain.PerfSample{
		Op:         "queryAggregate",
		ElapsedMs:  s.now().Sub(started).Milliseconds(),
		IssueCount: len(found.Issues),
	})

	s.log.Info().
		Str("account_id", caller.AccountID).
		Str("view", agg.Type).
		Int("issues", len(found.Issues)).
		Str("jql_applied", found.AppliedJQL).
		Msg("aggregate computed")
	return result, nil
}

func sample(issues []domain.Issue) []domain.IssueSummary {
	n := min(len(issues), MaxSampleIssues)
	out := make([]domain.IssueSummary, 0, n)
	for _, issue := range issues[:n] {
		out = append(out, issue.ToSummary(false))
	}
	return out
}

func meta(requested string, found domain.SearchResult, now time.Time) domain.AggregateMeta {
	m := domain.AggregateMeta{
		SourceCount:    len(found.Issues),
		TotalAvailable: len(found.Issues),
		JQLRequested:   requested,
		JQLApplied:     found.AppliedJQL,
		GeneratedAt:    domain.Timestamp(now),
	}
	if found.Total != nil {
		m.TotalAvailable = *found.Total
		m.Truncated = len(found.Issues) < *found.Total
	}
	return m
}
