package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mkaydev/auto-shop/internal/models"
)

func TestMemorySessionStore_GetSave(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	session := &models.ChatSession{
		ID:       "abc",
		IsActive: true,
		Messages: []models.ChatMessage{{Sender: models.SenderUser, Text: "hi"}},
	}
	assert.NoError(t, store.Save(ctx, session))

	got, err := store.Get(ctx, "abc")
	assert.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.Len(t, got.Messages, 1)

	// The store hands out copies, not the live document.
	got.IsActive = false
	again, _ := store.Get(ctx, "abc")
	assert.True(t, again.IsActive)
}

func TestMemorySessionStore_Delete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	assert.NoError(t, store.Save(ctx, &models.ChatSession{ID: "abc"}))
	assert.NoError(t, store.Delete(ctx, "abc"))
	_, err := store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting a missing session is not an error.
	assert.NoError(t, store.Delete(ctx, "missing"))
}

func TestMemorySessionStore_Cleanup(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	now := time.Now()

	sessions := []*models.ChatSession{
		{ID: "stale-inactive", IsActive: false, UpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "stale-active", IsActive: true, UpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "fresh-inactive", IsActive: false, UpdatedAt: now.Add(-5 * time.Minute)},
		{ID: "fresh-active", IsActive: true, UpdatedAt: now},
	}
	for _, s := range sessions {
		assert.NoError(t, store.Save(ctx, s))
	}

	removed, err := store.Cleanup(ctx, SessionTTL)
	assert.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, "stale-inactive")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	for _, id := range []string{"stale-active", "fresh-inactive", "fresh-active"} {
		_, err := store.Get(ctx, id)
		assert.NoError(t, err, "session %s should survive the sweep", id)
	}

	// The first sweep only deactivates a stale active session; the second
	// collects it.
	marked, err := store.Get(ctx, "stale-active")
	assert.NoError(t, err)
	assert.False(t, marked.IsActive)

	removed, err = store.Cleanup(ctx, SessionTTL)
	assert.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = store.Get(ctx, "stale-active")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Fresh sessions outlive both sweeps.
	for _, id := range []string{"fresh-inactive", "fresh-active"} {
		_, err := store.Get(ctx, id)
		assert.NoError(t, err, "session %s should survive both sweeps", id)
	}
}
