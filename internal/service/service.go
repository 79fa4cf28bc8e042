// Package service implements the caller-facing operations: aggregate queries, issue
// listing and export, saved views, admin configuration, perf snapshots and the audit
// trail. Transports (HTTP, CLI, TUI) are thin adapters over Service.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/h0rv/flowcanvas/internal/audit"
	"github.com/h0rv/flowcanvas/internal/cache"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/jql"
	"github.com/h0rv/flowcanvas/internal/kv"
	"github.com/h0rv/flowcanvas/internal/search"
	"github.com/h0rv/flowcanvas/internal/settings"
	"github.com/h0rv/flowcanvas/internal/views"
	"github.com/rs/zerolog"
)

// Limits on requested result sizes.
const (
	MinAggregateIssues = 100
	MaxAggregateIssues = 5000
	DefaultListIssues  = 200
	DefaultExportLimit = 500
	MaxListIssues      = 1000
	MaxSampleIssues    = 200
)

// Service wires the query pipeline to the stores.
type Service struct {
	fetcher  *search.Fetcher
	cache    *cache.Store
	settings *settings.Store
	views    *views.Store
	audit    *audit.Log
	kv       kv.Store
	now      func() time.Time
	log      zerolog.Logger
}

// New builds a Service over a fetcher and a KV store. All persistent state lives in store.
func New(fetcher *search.Fetcher, store kv.Store, log zerolog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		cache:    cache.New(store, log),
		settings: settings.New(store, log),
		views:    views.New(store),
		audit:    audit.New(store, log),
		kv:       store,
		now:      time.Now,
		log:      log.With().Str("component", "service").Logger(),
	}
}

// WithClock replaces the time source of the service and its stores.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.cache.WithClock(now)
	s.views.WithClock(now)
	s.audit.WithClock(now)
	return s
}

// Viewer describes the caller.
type Viewer struct {
	AccountID  string `json:"accountId"`
	CloudID    string `json:"cloudId"`
	IsAdmin    bool   `json:"isAdmin"`
	ProjectKey string `json:"projectKey"`
}

// BootstrapConfig is the subset of admin configuration every caller may see.
type BootstrapConfig struct {
	FieldMapping    domain.FieldMapping `json:"fieldMapping"`
	StatusGroups    domain.StatusGroups `json:"statusGroups"`
	CacheTTLSeconds int                 `json:"cacheTtlSeconds"`
}

// Constraints advertises the deployment guarantees.
type Constraints struct {
	HostedOnly bool `json:"hostedOnly"`
	DataEgress bool `json:"dataEgress"`
}

// Bootstrap is the initial payload of a client session.
type Bootstrap struct {
	Viewer      Viewer          `json:"viewer"`
	Config      BootstrapConfig `json:"config"`
	Constraints Constraints     `json:"constraints"`
}

// GetBootstrap returns the caller's identity, visible configuration and constraints.
func (s *Service) GetBootstrap(ctx context.Context, caller domain.Caller) (Bootstrap, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return Bootstrap{}, err
	}
	return Bootstrap{
		Viewer: Viewer{
			AccountID:  caller.AccountID,
			CloudID:    caller.CloudID,
			IsAdmin:    settings.IsAdmin(caller.AccountID, cfg),
			ProjectKey: caller.ProjectKey,
		},
		Config: BootstrapConfig{
			FieldMapping:    cfg.FieldMapping,
			StatusGroups:    cfg.StatusGroups,
			CacheTTLSeconds: cfg.CacheTTLSeconds,
		},
		Constraints: Constraints{HostedOnly: true, DataEgress: false},
	}, nil
}

// requireJQL trims q and rejects an empty query.
func requireJQL(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", domain.NewValidationError("JQL is required")
	}
	return q, nil
}

// daysBack converts a request time window to days, zero meaning the scoper default.
func daysBack(window string) int {
	if strings.TrimSpace(window) == "" {
		return 0
	}
	return jql.DaysFromWindow(window)
}

// extraFields are the mapped custom fields the distribution view reads.
func extraFields(cfg domain.AdminConfig) []string {
	return []string{cfg.FieldMapping.Team, cfg.FieldMapping.Points}
}

// clampRequested applies the request value, or fallback when zero, within [lo, hi].
func clampRequested(requested, fallback, lo, hi int) int {
	if requested == 0 {
		requested = fallback
	}
	return domain.Clamp(requested, lo, hi)
}

func accountOrUnknown(caller domain.Caller) string {
	if caller.AccountID == "" {
		return "unknown"
	}
	return caller.AccountID
}
