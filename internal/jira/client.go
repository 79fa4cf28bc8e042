// Package jira implements the upstream search transports: the REST cursor search
// endpoint and the Atlassian GraphQL gateway.
package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/search"
	"github.com/rs/zerolog"
)

// SearchPath is the cursor-paginated issue search endpoint.
const SearchPath = "/rest/api/3/search/jql"

// maxErrorBody is how much of an error response is kept.
const maxErrorBody = 300

// Credentials authenticate upstream calls. With an email the token is sent as basic
// auth (Jira Cloud API tokens); without one it is sent as a bearer token.
type Credentials struct {
	Email string
	Token string
}

func (c Credentials) header() string {
	if c.Token == "" {
		return ""
	}
	if c.Email != "" {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Email+":"+c.Token))
	}
	return "Bearer " + c.Token
}

// Client calls the Jira Cloud REST API.
type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a REST client for the site at baseURL.
func NewClient(baseURL string, creds Credentials, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "jira").Logger(),
	}
}

// BaseURL returns the site URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// BrowseURL returns the web URL of an issue.
func (c *Client) BrowseURL(key string) string {
	return c.baseURL + "/browse/" + url.PathEscape(key)
}

func (c *Client) apiURL(path string, q url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// get performs an authenticated GET and decodes a JSON response into out. Non-2xx
// responses are returned as classified upstream errors.
func (c *Client) get(ctx context.Context, u string, out any) error {
	if c.baseURL == "" {
		return errors.New("jira: empty base URL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if h := c.creds.header(); h != "" {
		req.Header.Set("Authorization", h)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jira request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("jira api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return domain.ClassifyUpstream(resp.StatusCode, CompactBody(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding jira response: %w", err)
	}
	return nil
}

type searchResponse struct {
	Issues        []domain.Issue `json:"issues"`
	Total         *int           `json:"total"`
	NextPageToken string         `json:"nextPageToken"`
	IsLast        bool           `json:"isLast"`
}

// Execute requests one page from the cursor search endpoint.
func (c *Client) Execute(ctx context.Context, req search.PageRequest) (domain.PageResult, error) {
	q := url.Values{}
	q.Set("jql", req.Query)
	q.Set("maxResults", strconv.Itoa(req.PageSize))
	q.Set("fields", strings.Join(req.Fields, ","))
	if req.Cursor != "" {
		q.Set("nextPageToken", req.Cursor)
	}

	var resp searchResponse
	if err := c.get(ctx, c.apiURL(SearchPath, q), &resp); err != nil {
		return domain.PageResult{}, err
	}
	if resp.Issues == nil {
		resp.Issues = []domain.Issue{}
	}
	return domain.PageResult{
		Issues:        resp.Issues,
		Total:         resp.Total,
		NextPageToken: resp.NextPageToken,
		IsLast:        resp.IsLast,
	}, nil
}

// Myself is the authenticated user.
type Myself struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// Myself returns the user the credentials belong to.
func (c *Client) Myself(ctx context.Context) (Myself, error) {
	var me Myself
	if err := c.get(ctx, c.apiURL("/rest/api/3/myself", nil), &me); err != nil {
		return Myself{}, err
	}
	return me, nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CompactBody flattens an error body onto one line, collapses whitespace runs and keeps
// at most the first 300 characters.
func CompactBody(raw string) string {
	s := strings.ReplaceAll(raw, "\n", " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	if r := []rune(s); len(r) > maxErrorBody {
		s = string(r[:maxErrorBody])
	}
	return s
}
