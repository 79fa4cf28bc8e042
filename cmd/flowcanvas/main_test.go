package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/h0rv/flowcanvas/internal/config"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/search"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallerFrom(t *testing.T) {
	cfg := config.CallerConfig{AccountID: "acct-1", CloudID: "cloud-1", ProjectKey: "AYB"}

	t.Run("config only", func(t *testing.T) {
		assert.Equal(t, domain.Caller{AccountID: "acct-1", CloudID: "cloud-1", ProjectKey: "AYB"}, callerFrom(cfg, "", ""))
	})

	t.Run("flags override", func(t *testing.T) {
		got := callerFrom(cfg, "acct-2", "OPS")
		assert.Equal(t, "acct-2", got.AccountID)
		assert.Equal(t, "cloud-1", got.CloudID)
		assert.Equal(t, "OPS", got.ProjectKey)
	})
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"To Do", "Open"}, splitList(" To Do, ,Open "))
	assert.Equal(t, []string{}, splitList(""))
}

func TestAdminPatch(t *testing.T) {
	f := adminSetCmd.Flags()
	require.NoError(t, f.Set("team-field", "customfield_10001"))
	require.NoError(t, f.Set("in-progress", "In Progress,In Review"))
	require.NoError(t, f.Set("cache-ttl", "600"))

	p := adminPatch(adminSetCmd)

	assert.Nil(t, p.AdminAccountIDs)
	require.NotNil(t, p.FieldMapping)
	require.NotNil(t, p.FieldMapping.Team)
	assert.Equal(t, "customfield_10001", *p.FieldMapping.Team)
	assert.Nil(t, p.FieldMapping.Points)
	assert.Nil(t, p.FieldMapping.StatusCategoryFallback)
	require.NotNil(t, p.StatusGroups)
	assert.Equal(t, []string{"In Progress", "In Review"}, p.StatusGroups.InProgress)
	assert.Nil(t, p.StatusGroups.Backlog)
	assert.Equal(t, 600, p.CacheTTLSeconds)
	assert.Zero(t, p.MaxIssuesPerQuery)
}

func TestBuildTransportOffline(t *testing.T) {
	cfg := &config.Config{Jira: config.JiraConfig{BaseURL: "https://example.atlassian.net"}}

	transport, browse, err := buildTransport(cfg, false, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, browse)
	assert.Equal(t, "https://example.atlassian.net/browse/AYB-1", browse("AYB-1"))

	_, err = transport.Execute(context.Background(), search.PageRequest{Query: "project = AYB"})
	assert.ErrorIs(t, err, errOffline)
}

func TestBuildTransportRequiresBaseURL(t *testing.T) {
	cfg := &config.Config{Jira: config.JiraConfig{APIToken: "secret", Transport: config.TransportREST}}

	_, _, err := buildTransport(cfg, true, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jira.base_url is required")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"count": 2}))
	assert.Equal(t, "{\n  \"count\": 2\n}\n", buf.String())
}
