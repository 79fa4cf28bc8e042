// Package cache memoizes aggregate results in the KV store under content-derived keys,
// with a bounded TTL and lazy expiry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/kv"
	"github.com/rs/zerolog"
)

// KeyPrefix namespaces cache entries in the KV store.
const KeyPrefix = "cache:"

// TTL bounds applied to every write.
const (
	MinTTLSeconds = 60
	MaxTTLSeconds = 3600
)

// HashKey renders domain.Hash32 of raw as a decimal string.
func HashKey(raw string) string {
	return strconv.FormatInt(domain.Hash32(raw), 10)
}

// KeyInput is the request part of a cache key.
type KeyInput struct {
	JQL        string
	ProjectKey string
	TimeWindow string
	ViewType   string
}

// keyMaterial fixes the field order of the canonical serialization.
type keyMaterial struct {
	AccountID    string              `json:"accountId"`
	JQL          string              `json:"jql"`
	ProjectKey   string              `json:"projectKey"`
	TimeWindow   string              `json:"timeWindow"`
	ViewType     string              `json:"viewType"`
	FieldMapping domain.FieldMapping `json:"fieldMapping"`
	StatusGroups domain.StatusGroups `json:"statusGroups"`
}

// BuildKey derives the cache key for a caller's request under cfg. Requests that differ
// in any input, or are evaluated under a different field mapping or status grouping,
// get different keys.
func BuildKey(callerID string, in KeyInput, cfg domain.AdminConfig) string {
	m := keyMaterial{
		AccountID:    callerID,
		JQL:          in.JQL,
		ProjectKey:   in.ProjectKey,
		TimeWindow:   in.TimeWindow,
		ViewType:     in.ViewType,
		FieldMapping: cfg.FieldMapping,
		StatusGroups: cfg.StatusGroups,
	}
	if m.TimeWindow == "" {
		m.TimeWindow = domain.DefaultTimeWindow
	}
	if m.ViewType == "" {
		m.ViewType = domain.ViewFlow
	}
	raw, _ := json.Marshal(m) // plain strings and slices cannot fail
	return KeyPrefix + HashKey(string(raw))
}

// Entry is the stored record wrapping a cached value.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt int64           `json:"expiresAt"` // unix milliseconds
	CachedAt  string          `json:"cachedAt"`
}

// Store reads and writes cache entries.
type Store struct {
	kv  kv.Store
	now func() time.Time
	log zerolog.Logger
}

// New creates a cache over store.
func New(store kv.Store, log zerolog.Logger) *Store {
	return &Store{
		kv:  store,
		now: time.Now,
		log: log.With().Str("component", "cache").Logger(),
	}
}

// WithClock replaces the time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Read decodes the entry under key into out. It reports false when the key is missing
// or the entry has expired; expired entries are left in place.
func (s *Store) Read(ctx context.Context, key string, out any) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	if entry.ExpiresAt == 0 || s.now().UnixMilli() > entry.ExpiresAt {
		s.log.Debug().Str("key", key).Msg("cache entry expired")
		return false, nil
	}
	if err := json.Unmarshal(entry.Data, out); err != nil {
		return false, fmt.Errorf("decoding cached data %s: %w", key, err)
	}
	return true, nil
}

// Write stores data under key for ttlSeconds, clamped to [MinTTLSeconds, MaxTTLSeconds],
// replacing any previous entry.
func (s *Store) Write(ctx context.Context, key string, data any, ttlSeconds int) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding cache data: %w", err)
	}

	now := s.now()
	ttl := time.Duration(domain.Clamp(ttlSeconds, MinTTLSeconds, MaxTTLSeconds)) * time.Second
	entry := Entry{
		Data:      payload,
		ExpiresAt: now.Add(ttl).UnixMilli(),
		CachedAt:  domain.Timestamp(now),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	return s.kv.Set(ctx, key, raw)
}
