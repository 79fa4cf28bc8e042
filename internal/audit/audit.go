// Package audit keeps a bounded, newest-first trail of configuration and view mutations.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/kv"
	"github.com/rs/zerolog"
)

// Key is the KV key holding the trail.
const Key = "audit-log"

// MaxEvents is the number of events retained.
const MaxEvents = 500

// Event types.
const (
	TypeConfigSaved = "admin.config.saved"
	TypeViewSaved   = "view.saved"
	TypeViewDeleted = "view.deleted"
)

// Log records audit events.
type Log struct {
	mu  sync.Mutex // serializes read-modify-write within this process
	kv  kv.Store
	now func() time.Time
	log zerolog.Logger
}

// New creates a Log over store.
func New(store kv.Store, log zerolog.Logger) *Log {
	return &Log{
		kv:  store,
		now: time.Now,
		log: log.With().Str("component", "audit").Logger(),
	}
}

// WithClock replaces the time source.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

// Record prepends an event, dropping the oldest beyond MaxEvents.
func (l *Log) Record(ctx context.Context, eventType, user string, details map[string]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.load(ctx)
	if err != nil {
		return err
	}

	event := domain.AuditEvent{
		TS:      domain.Timestamp(l.now()),
		Type:    eventType,
		User:    user,
		Details: details,
	}
	events = append([]domain.AuditEvent{event}, events...)
	if len(events) > MaxEvents {
		events = events[:MaxEvents]
	}

	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encoding audit log: %w", err)
	}
	if err := l.kv.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	l.log.Debug().Str("type", eventType).Str("user", user).Msg("audit event recorded")
	return nil
}

// List returns up to limit events, newest first. A limit of zero or less returns all.
func (l *Log) List(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	events, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (l *Log) load(ctx context.Context) ([]domain.AuditEvent, error) {
	raw, err := l.kv.Get(ctx, Key)
	if errors.Is(err, kv.ErrNotFound) {
		return []domain.AuditEvent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	var events []domain.AuditEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decoding audit log: %w", err)
	}
	if events == nil {
		events = []domain.AuditEvent{}
	}
	return events, nil
}
