// Package settings persists the admin-owned configuration record and enforces who may
// change it.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/kv"
	"github.com/rs/zerolog"
)

// ConfigKey is the KV key of the configuration record.
const ConfigKey = "config"

// Bounds applied to numeric settings on save.
const (
	MinCacheTTLSeconds   = 60
	MaxCacheTTLSeconds   = 3600
	MinMaxIssuesPerQuery = 100
	MaxMaxIssuesPerQuery = 5000
)

// FieldMappingPatch updates individual field mapping entries; nil fields are kept.
type FieldMappingPatch struct {
	Team                   *string `json:"team,omitempty"`
	Points                 *string `json:"points,omitempty"`
	StatusCategoryFallback *bool   `json:"statusCategoryFallback,omitempty"`
}

// StatusGroupsPatch replaces the status list of each lane that is non-nil.
type StatusGroupsPatch struct {
	Backlog    []string `json:"backlog,omitempty"`
	InProgress []string `json:"inProgress,omitempty"`
	Done       []string `json:"done,omitempty"`
}

// Patch is a partial configuration update. Zero numeric values keep the current value.
type Patch struct {
	AdminAccountIDs   *[]string          `json:"adminAccountIds,omitempty"`
	FieldMapping      *FieldMappingPatch `json:"fieldMapping,omitempty"`
	StatusGroups      *StatusGroupsPatch `json:"statusGroups,omitempty"`
	CacheTTLSeconds   int                `json:"cacheTtlSeconds,omitempty"`
	MaxIssuesPerQuery int                `json:"maxIssuesPerQuery,omitempty"`
}

// Store reads and writes the configuration record.
type Store struct {
	kv  kv.Store
	log zerolog.Logger
}

// New creates a Store over store.
func New(store kv.Store, log zerolog.Logger) *Store {
	return &Store{kv: store, log: log.With().Str("component", "settings").Logger()}
}

// Get returns the stored configuration laid over the defaults. Before any save it
// returns domain.DefaultAdminConfig.
func (s *Store) Get(ctx context.Context) (domain.AdminConfig, error) {
	cfg := domain.DefaultAdminConfig()

	raw, err := s.kv.Get(ctx, ConfigKey)
	if errors.Is(err, kv.ErrNotFound) {
		return cfg, nil
	}
	if err != nil {
		return domain.AdminConfig{}, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.AdminConfig{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.AdminAccountIDs == nil {
		cfg.AdminAccountIDs = []string{}
	}
	return cfg, nil
}

// IsAdmin reports whether accountID may change cfg. An empty admin list leaves the
// configuration open to everyone until an admin list is saved.
func IsAdmin(accountID string, cfg domain.AdminConfig) bool {
	if len(cfg.AdminAccountIDs) == 0 {
		return true
	}
	return slices.Contains(cfg.AdminAccountIDs, accountID)
}

// Save applies p to the current configuration on behalf of accountID and stores the
// result whole. Non-admins get a *domain.PermissionError and nothing is written.
func (s *Store) Save(ctx context.Context, accountID string, p Patch) (domain.AdminConfig, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return domain.AdminConfig{}, err
	}
	if !IsAdmin(accountID, current) {
		return domain.AdminConfig{}, &domain.PermissionError{Msg: "Admin permission required"}
	}

	next := Apply(current, p)
	raw, err := json.Marshal(next)
	if err != nil {
		return domain.AdminConfig{}, fmt.Errorf("encoding config: %w", err)
	}
	if err := s.kv.Set(ctx, ConfigKey, raw); err != nil {
		return domain.AdminConfig{}, fmt.Errorf("writing config: %w", err)
	}

	s.log.Info().
		Str("account_id", accountID).
		Int("cache_ttl_seconds", next.CacheTTLSeconds).
		Int("max_issues_per_query", next.MaxIssuesPerQuery).
		Msg("admin config saved")
	return next, nil
}

// Apply merges p into cur. Field mapping entries and status lanes are merged per key,
// numeric settings are clamped to their bounds, and the admin list is replaced only
// when p carries one.
func Apply(cur domain.AdminConfig, p Patch) domain.AdminConfig {
	next := cur

	if fm := p.FieldMapping; fm != nil {
		if fm.Team != nil {
			next.FieldMapping.Team = *fm.Team
		}
		if fm.Points != nil {
			next.FieldMapping.Points = *fm.Points
		}
		if fm.StatusCategoryFallback != nil {
			next.FieldMapping.StatusCategoryFallback = *fm.StatusCategoryFallback
		}
	}

	if sg := p.StatusGroups; sg != nil {
		if sg.Backlog != nil {
			next.StatusGroups.Backlog = slices.Clone(sg.Backlog)
		}
		if sg.InProgress != nil {
			next.StatusGroups.InProgress = slices.Clone(sg.InProgress)
		}
		if sg.Done != nil {
			next.StatusGroups.Done = slices.Clone(sg.Done)
		}
	}

	ttl := cur.CacheTTLSeconds
	if p.CacheTTLSeconds != 0 {
		ttl = p.CacheTTLSeconds
	}
	next.CacheTTLSeconds = domain.Clamp(ttl, MinCacheTTLSeconds, MaxCacheTTLSeconds)

	maxIssues := cur.MaxIssuesPerQuery
	if p.MaxIssuesPerQuery != 0 {
		maxIssues = p.MaxIssuesPerQuery
	}
	next.MaxIssuesPerQuery = domain.Clamp(maxIssues, MinMaxIssuesPerQuery, MaxMaxIssuesPerQuery)

	if p.AdminAccountIDs != nil {
		next.AdminAccountIDs = slices.Clone(*p.AdminAccountIDs)
		if next.AdminAccountIDs == nil {
			next.AdminAccountIDs = []string{}
		}
	}
	return next
}
