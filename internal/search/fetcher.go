// Package search pages through the tracker's cursor-based search protocol with a hard
// result cap, and relaxes the query when the upstream rejects it as unbounded.
package search

import (
	"context"
	"strings"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/jql"
	"github.com/rs/zerolog"
)

// MaxPageSize is the largest page requested from the upstream.
const MaxPageSize = 100

// DefaultFields is the field projection every page request carries.
var DefaultFields = []string{"summary", "status", "priority", "created", "updated", "issuetype"}

// PageRequest describes one upstream page request. Cursor is empty for the first page.
type PageRequest struct {
	Query    string
	PageSize int
	Cursor   string
	Fields   []string
}

// Transport executes a single page request against the search endpoint.
// Implementations report failures as *domain.UpstreamError or *domain.UnboundedQueryError.
type Transport interface {
	Execute(ctx context.Context, req PageRequest) (domain.PageResult, error)
}

// Request is a caller query to scope and fetch.
type Request struct {
	JQL         string
	ProjectKey  string // inferred from JQL when empty
	MaxIssues   int
	DaysBack    int      // rolling window; scoper default when zero
	ExtraFields []string // custom field ids to project in addition to DefaultFields
}

// Fetcher retrieves capped result sets through a Transport.
type Fetcher struct {
	transport Transport
	scoper    jql.Scoper
	log       zerolog.Logger
}

// New creates a Fetcher.
func New(transport Transport, scoper jql.Scoper, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		transport: transport,
		scoper:    scoper,
		log:       log.With().Str("component", "fetcher").Logger(),
	}
}

// Scoper returns the scoper the fetcher bounds queries with.
func (f *Fetcher) Scoper() jql.Scoper {
	return f.scoper
}

// Fetch pages through query until maxIssues results are collected, the upstream
// signals the last page, a page comes back empty, or no cursor is returned.
// Pages are requested strictly in sequence. The returned AppliedJQL is query.
func (f *Fetcher) Fetch(ctx context.Context, query string, maxIssues int, extraFields ...string) (domain.SearchResult, error) {
	result := domain.SearchResult{
		Issues:     make([]domain.Issue, 0),
		AppliedJQL: query,
	}
	fields := projection(extraFields)

	cursor := ""
	for page := 1; len(result.Issues) < maxIssues; page++ {
		remaining := maxIssues - len(result.Issues)
		pageSize := min(MaxPageSize, remaining)

		resp, err := f.transport.Execute(ctx, PageRequest{
			Query:    query,
			PageSize: pageSize,
			Cursor:   cursor,
			Fields:   fields,
		})
		if err != nil {
			return domain.SearchResult{}, err
		}

		batch := resp.Issues
		if len(batch) > remaining {
			batch = batch[:remaining]
		}
		result.Issues = append(result.Issues, batch...)
		if resp.Total != nil {
			total := *resp.Total
			result.Total = &total
		}

		f.log.Debug().
			Int("page", page).
			Int("page_size", pageSize).
			Int("received", len(resp.Issues)).
			Int("collected", len(result.Issues)).
			Bool("is_last", resp.IsLast).
			Msg("search page")

		cursor = resp.NextPageToken
		if cursor == "" || resp.IsLast || len(resp.Issues) == 0 {
			break
		}
	}

	return result, nil
}

// FetchWorkItems scopes req.JQL and fetches it. When the first attempt is rejected as
// unbounded, progressively looser fallback queries are tried in order; the first one
// that succeeds is returned with its query as AppliedJQL. A fallback failing for any
// other reason ends the sequence with that error. If every fallback is rejected the
// last rejection is returned.
func (f *Fetcher) FetchWorkItems(ctx context.Context, req Request) (domain.SearchResult, error) {
	projectKey := strings.TrimSpace(req.ProjectKey)
	if projectKey == "" {
		projectKey = jql.ExtractProjectKey(req.JQL)
	}
	scoper := f.scoper
	if req.DaysBack > 0 {
		scoper = scoper.WithDays(req.DaysBack)
	}

	scoped := scoper.Compose(req.JQL, projectKey)
	result, err := f.Fetch(ctx, scoped, req.MaxIssues, req.ExtraFields...)
	if err == nil {
		return result, nil
	}
	if !domain.IsUnbounded(err) {
		return domain.SearchResult{}, err
	}

	lastErr := err
	for i, candidate := range scoper.FallbackCandidates(req.JQL, projectKey) {
		f.log.Warn().
			Int("attempt", i+1).
			Str("jql", candidate).
			Msg("unbounded query rejected, retrying with relaxed query")

		result, err := f.Fetch(ctx, candidate, req.MaxIssues, req.ExtraFields...)
		if err == nil {
			return result, nil
		}
		if !domain.IsUnbounded(err) {
			return domain.SearchResult{}, err
		}
		lastErr = err
	}
	return domain.SearchResult{}, lastErr
}

// projection returns DefaultFields followed by any extra, de-duplicated, non-empty ids.
func projection(extra []string) []string {
	fields := make([]string, 0, len(DefaultFields)+len(extra))
	seen := make(map[string]bool, len(DefaultFields)+len(extra))
	for _, f := range append(append([]string{}, DefaultFields...), extra...) {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		fields = append(fields, f)
	}
	return fields
}
