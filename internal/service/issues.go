package service

import (
	"context"
	"strings"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/search"
)

// ExportFileName is the suggested name of exported files.
const ExportFileName = "flow-canvas-export.csv"

var exportHeader = []string{"Key", "Summary", "Status", "Priority", "Updated"}

// ListRequest asks for raw issue rows. Unlike aggregates, the project key comes from the
// request only.
type ListRequest struct {
	JQL        string `json:"jql"`
	ProjectKey string `json:"projectKey,omitempty"`
	MaxIssues  int    `json:"maxIssues,omitempty" validate:"gte=0"`
}

// Export is a generated file.
type Export struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

func (s *Service) fetchRows(ctx context.Context, req ListRequest, fallback int) ([]domain.Issue, error) {
	query, err := requireJQL(req.JQL)
	if err != nil {
		return nil, err
	}
	found, err := s.fetcher.FetchWorkItems(ctx, search.Request{
		JQL:        query,
		ProjectKey: req.ProjectKey,
		MaxIssues:  clampRequested(req.MaxIssues, fallback, 1, MaxListIssues),
	})
	if err != nil {
		return nil, err
	}
	return found.Issues, nil
}

// ListIssues returns issue rows for req, 200 by default and at most 1000.
func (s *Service) ListIssues(ctx context.Context, _ domain.Caller, req ListRequest) ([]domain.IssueSummary, error) {
	issues, err := s.fetchRows(ctx, req, DefaultListIssues)
	if err != nil {
		return nil, err
	}
	out := make([]domain.IssueSummary, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.ToSummary(true))
	}
	return out, nil
}

// ExportIssuesCSV renders issue rows for req as CSV, 500 by default and at most 1000.
func (s *Service) ExportIssuesCSV(ctx context.Context, _ domain.Caller, req ListRequest) (Export, error) {
	issues, err := s.fetchRows(ctx, req, DefaultExportLimit)
	if err != nil {
		return Export{}, err
	}

	rows := make([][]string, 0, len(issues)+1)
	rows = append(rows, exportHeader)
	for _, issue := range issues {
		rows = append(rows, []string{
			issue.Key,
			issue.Summary(),
			issue.StatusName(),
			issue.PriorityName(),
			issue.Updated(),
		})
	}
	return Export{FileName: ExportFileName, Content: EncodeCSV(rows)}, nil
}

// EncodeCSV quotes every field, doubles embedded quotes and joins rows with "\n"
// without a trailing newline.
func EncodeCSV(rows [][]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, field := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
		}
	}
	return b.String()
}
