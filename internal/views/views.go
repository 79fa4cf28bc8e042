// Package views stores named query presets per caller.
package views

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/kv"
)

// ListLimit caps how many views List returns.
const ListLimit = 50

// ErrNotFound is returned by Get for an unknown view.
var ErrNotFound = errors.New("view not found")

// Key returns the KV key of a caller's view.
func Key(accountID, name string) string {
	return prefix(accountID) + name
}

func prefix(accountID string) string {
	return "view:" + accountID + ":"
}

// record is the stored form of a view. Owner disambiguates keys when an account id
// contains the key separator.
type record struct {
	Owner string `json:"accountId"`
	domain.SavedView
}

// Store persists saved views.
type Store struct {
	kv  kv.Store
	now func() time.Time
}

// New creates a Store over store.
func New(store kv.Store) *Store {
	return &Store{kv: store, now: time.Now}
}

// WithClock replaces the time source used for UpdatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("View name is required")
	}
	return name, nil
}

// Save stores v under its trimmed name, filling default time window and view type and
// stamping UpdatedAt. An existing view with the same name is replaced.
func (s *Store) Save(ctx context.Context, accountID string, v domain.SavedView) (domain.SavedView, error) {
	name, err := requireName(v.Name)
	if err != nil {
		return domain.SavedView{}, err
	}

	view := domain.SavedView{
		Name:       name,
		JQL:        v.JQL,
		TimeWindow: v.TimeWindow,
		ViewType:   v.ViewType,
		UpdatedAt:  domain.Timestamp(s.now()),
	}
	if view.TimeWindow == "" {
		view.TimeWindow = domain.DefaultTimeWindow
	}
	if view.ViewType == "" {
		view.ViewType = domain.ViewFlow
	}

	raw, err := json.Marshal(record{Owner: accountID, SavedView: view})
	if err != nil {
		return domain.SavedView{}, fmt.Errorf("encoding view: %w", err)
	}
	if err := s.kv.Set(ctx, Key(accountID, name), raw); err != nil {
		return domain.SavedView{}, fmt.Errorf("saving view %q: %w", name, err)
	}
	return view, nil
}

// Get returns a single view, or ErrNotFound.
func (s *Store) Get(ctx context.Context, accountID, name string) (domain.SavedView, error) {
	name, err := requireName(name)
	if err != nil {
		return domain.SavedView{}, err
	}
	raw, err := s.kv.Get(ctx, Key(accountID, name))
	if errors.Is(err, kv.ErrNotFound) {
		return domain.SavedView{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return domain.SavedView{}, fmt.Errorf("reading view %q: %w", name, err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.SavedView{}, fmt.Errorf("decoding view %q: %w", name, err)
	}
	return rec.SavedView, nil
}

// List returns up to ListLimit views of accountID in key order. The key prefix of one
// account can cover keys of another ("u1:" and "u1:x:"), so entries are matched on owner.
func (s *Store) List(ctx context.Context, accountID string) ([]domain.SavedView, error) {
	entries, err := s.kv.Query(ctx, prefix(accountID), 0)
	if err != nil {
		return nil, fmt.Errorf("listing views: %w", err)
	}

	out := make([]domain.SavedView, 0, min(len(entries), ListLimit))
	for _, e := range entries {
		var rec record
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			return nil, fmt.Errorf("decoding view %s: %w", e.Key, err)
		}
		if rec.Owner != accountID {
			continue
		}
		out = append(out, rec.SavedView)
		if len(out) == ListLimit {
			break
		}
	}
	return out, nil
}

// Delete removes a view. Deleting a view that does not exist succeeds.
func (s *Store) Delete(ctx context.Context, accountID, name string) error {
	name, err := requireName(name)
	if err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, Key(accountID, name)); err != nil {
		return fmt.Errorf("deleting view %q: %w", name, err)
	}
	return nil
}
