package views

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return New(kv.NewMemory()).WithClock(func() time.Time { return fixed })
}

func TestKey(t *testing.T) {
	assert.Equal(t, "view:u1:My board", Key("u1", "My board"))
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	t.Run("fills defaults", func(t *testing.T) {
		v, err := s.Save(ctx, "u1", domain.SavedView{Name: "  Team A  ", JQL: "project = A"})
		require.NoError(t, err)
		assert.Equal(t, domain.SavedView{
			Name:       "Team A",
			JQL:        "project = A",
			TimeWindow: "P90D",
			ViewType:   "flow",
			UpdatedAt:  "2026-03-01T09:30:00.000Z",
		}, v)

		got, err := s.Get(ctx, "u1", "Team A")
		require.NoError(t, err)
		assert.Equal(t, v, got)
	})

	t.Run("name required", func(t *testing.T) {
		_, err := s.Save(ctx, "u1", domain.SavedView{Name: "   "})
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.EqualError(t, err, "View name is required")
	})

	t.Run("replaces same name", func(t *testing.T) {
		_, err := s.Save(ctx, "u1", domain.SavedView{Name: "dup", JQL: "a"})
		require.NoError(t, err)
		_, err = s.Save(ctx, "u1", domain.SavedView{Name: "dup", JQL: "b", ViewType: "canvas"})
		require.NoError(t, err)

		got, err := s.Get(ctx, "u1", "dup")
		require.NoError(t, err)
		assert.Equal(t, "b", got.JQL)
		assert.Equal(t, "canvas", got.ViewType)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	for _, name := range []string{"b", "a", "c"} {
		_, err := s.Save(ctx, "u1", domain.SavedView{Name: name})
		require.NoError(t, err)
	}
	_, err := s.Save(ctx, "u2", domain.SavedView{Name: "other"})
	require.NoError(t, err)

	got, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[2].Name)

	t.Run("limited", func(t *testing.T) {
		s := newTestStore()
		for i := 0; i < ListLimit+5; i++ {
			_, err := s.Save(ctx, "u1", domain.SavedView{Name: fmt.Sprintf("v%03d", i)})
			require.NoError(t, err)
		}
		got, err := s.List(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, got, ListLimit)
	})

	t.Run("account ids sharing a key prefix", func(t *testing.T) {
		s := newTestStore()
		_, err := s.Save(ctx, "alice", domain.SavedView{Name: "mine"})
		require.NoError(t, err)
		_, err = s.Save(ctx, "alice:x", domain.SavedView{Name: "theirs"})
		require.NoError(t, err)

		got, err := s.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "mine", got[0].Name)

		got, err = s.List(ctx, "alice:x")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "theirs", got[0].Name)
	})

	t.Run("none", func(t *testing.T) {
		got, err := newTestStore().List(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.Save(ctx, "u1", domain.SavedView{Name: "gone"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "u1", "gone"))

	_, err = s.Get(ctx, "u1", "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "u1", "never existed"))

	err = s.Delete(ctx, "u1", "")
	assert.EqualError(t, err, "View name is required")
}
