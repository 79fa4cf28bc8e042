package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/search"
	"github.com/machinebox/graphql"
	"github.com/rs/zerolog"
)

// DefaultGatewayURL is the Atlassian GraphQL gateway.
const DefaultGatewayURL = "https://api.atlassian.com/graphql"

// gatewayErrorStatus is reported for gateway errors, which carry no HTTP status.
const gatewayErrorStatus = http.StatusBadRequest

const issueSearchQuery = `
	query($cloudId: ID!, $jql: String!, $first: Int!, $after: String, $fieldIds: [String!]!) {
		jira {
			issueSearchStable(
				cloudId: $cloudId
				issueSearchInput: { jql: $jql }
				first: $first
				after: $after
			) {
				totalCount
				pageInfo {
					hasNextPage
					endCursor
				}
				edges {
					node {
						issueId
						key
						fieldsById(ids: $fieldIds) {
							edges {
								node {
									fieldId
									... on JiraSingleLineTextField {
										text
									}
									... on JiraStatusField {
										status {
											name
											statusCategory {
												key
												name
											}
										}
									}
									... on JiraPriorityField {
										priority {
											name
										}
									}
									... on JiraIssueTypeField {
										issueType {
											name
										}
									}
									... on JiraDateTimePickerField {
										dateTime
									}
									... on JiraNumberField {
										number
									}
									... on JiraSingleSelectField {
										fieldOption {
											value
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}
`

type gqlNamed struct {
	Name           string `json:"name"`
	StatusCategory *struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"statusCategory,omitempty"`
}

type gqlField struct {
	FieldID     string    `json:"fieldId"`
	Text        *string   `json:"text"`
	Status      *gqlNamed `json:"status"`
	Priority    *gqlNamed `json:"priority"`
	IssueType   *gqlNamed `json:"issueType"`
	DateTime    *string   `json:"dateTime"`
	Number      *float64  `json:"number"`
	FieldOption *struct {
		Value string `json:"value"`
	} `json:"fieldOption"`
}

// value returns the field in the shape the REST API uses, or nil when it carries none.
func (f gqlField) value() any {
	switch {
	case f.Text != nil:
		return *f.Text
	case f.Status != nil:
		return f.Status
	case f.Priority != nil:
		return f.Priority
	case f.IssueType != nil:
		return f.IssueType
	case f.DateTime != nil:
		return *f.DateTime
	case f.Number != nil:
		return *f.Number
	case f.FieldOption != nil:
		return map[string]string{"value": f.FieldOption.Value}
	default:
		return nil
	}
}

type issueSearchResponse struct {
	Jira struct {
		IssueSearchStable struct {
			TotalCount *int `json:"totalCount"`
			PageInfo   struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Edges []struct {
				Node struct {
					IssueID    string `json:"issueId"`
					Key        string `json:"key"`
					FieldsByID struct {
						Edges []struct {
							Node gqlField `json:"node"`
						} `json:"edges"`
					} `json:"fieldsById"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"issueSearchStable"`
	} `json:"jira"`
}

// GraphQLTransport searches through the Atlassian GraphQL gateway. Results are normalized
// into the REST field shapes so the rest of the pipeline cannot tell the transports apart.
type GraphQLTransport struct {
	gql     *graphql.Client
	cloudID string
	creds   Credentials
	log     zerolog.Logger
}

// NewGraphQLTransport creates a gateway transport for the site identified by cloudID.
func NewGraphQLTransport(endpoint, cloudID string, creds Credentials, timeout time.Duration, log zerolog.Logger) *GraphQLTransport {
	if endpoint == "" {
		endpoint = DefaultGatewayURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := graphql.NewClient(endpoint, graphql.WithHTTPClient(&http.Client{Timeout: timeout}))
	return &GraphQLTransport{
		gql:     client,
		cloudID: cloudID,
		creds:   creds,
		log:     log.With().Str("component", "jira-graphql").Logger(),
	}
}

// makeRequest executes a GraphQL request with authentication.
func (t *GraphQLTransport) makeRequest(ctx context.Context, req *graphql.Request, resp any) error {
	if h := t.creds.header(); h != "" {
		req.Header.Set("Authorization", h)
	}
	return t.gql.Run(ctx, req, resp)
}

// Execute requests one page of issueSearchStable.
func (t *GraphQLTransport) Execute(ctx context.Context, pr search.PageRequest) (domain.PageResult, error) {
	req := graphql.NewRequest(issueSearchQuery)
	req.Var("cloudId", t.cloudID)
	req.Var("jql", pr.Query)
	req.Var("first", pr.PageSize)
	req.Var("fieldIds", pr.Fields)
	if pr.Cursor != "" {
		req.Var("after", pr.Cursor)
	} else {
		req.Var("after", nil)
	}

	var resp issueSearchResponse
	if err := t.makeRequest(ctx, req, &resp); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.PageResult{}, err
		}
		msg := strings.TrimPrefix(err.Error(), "graphql: ")
		return domain.PageResult{}, domain.ClassifyUpstream(gatewayErrorStatus, CompactBody(msg))
	}

	conn := resp.Jira.IssueSearchStable
	page := domain.PageResult{
		Issues: make([]domain.Issue, 0, len(conn.Edges)),
		Total:  conn.TotalCount,
		IsLast: !conn.PageInfo.HasNextPage,
	}
	if conn.PageInfo.HasNextPage {
		page.NextPageToken = conn.PageInfo.EndCursor
	}

	for _, edge := range conn.Edges {
		issue := domain.Issue{
			ID:     edge.Node.IssueID,
			Key:    edge.Node.Key,
			Fields: make(map[string]json.RawMessage, len(edge.Node.FieldsByID.Edges)),
		}
		for _, fe := range edge.Node.FieldsByID.Edges {
			v := fe.Node.value()
			if v == nil {
				continue
			}
			raw, err := json.Marshal(v)
			if err != nil {
				return domain.PageResult{}, err
			}
			issue.Fields[fe.Node.FieldID] = raw
		}
		page.Issues = append(page.Issues, issue)
	}

	t.log.Debug().
		Int("issues", len(page.Issues)).
		Bool("has_next", conn.PageInfo.HasNextPage).
		Msg("gateway search page")
	return page, nil
}
