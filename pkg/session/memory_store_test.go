package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playtopup/storefront/pkg/session"
)

func newTestSession(userID uuid.UUID, id string, expiresAt time.Time) *session.Session {
	now := expiresAt.Add(-24 * time.Hour)
	return &session.Session{
		ID:               id,
		UserID:           userID,
		Email:            "buyer@example.com",
		Name:             "Buyer",
		Role:             "customer",
		LoginTime:        now,
		LastActivity:     now,
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: expiresAt.Add(6 * 24 * time.Hour),
	}
}

func TestMemoryStore_CreateGet(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	sess := newTestSession(userID, "sess-1", time.Now().Add(time.Hour))
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	// Get returns a copy: mutating it must not leak into the store
	got.Email = "tampered@example.com"
	again, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", again.Email)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := session.NewMemoryStore()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestMemoryStore_GetDoesNotEnforceExpiry(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()

	// Already expired; the raw store still serves it (the manager owns
	// expiry semantics)
	sess := newTestSession(uuid.New(), "stale", time.Now().Add(-time.Hour))
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, "stale", got.ID)
}

func TestMemoryStore_CreateRejectsInvalid(t *testing.T) {
	store := session.NewMemoryStore()

	assert.ErrorIs(t, store.Create(context.Background(), nil), session.ErrInvalidSession)
	assert.ErrorIs(t, store.Create(context.Background(), &session.Session{}), session.ErrInvalidSession)
}

func TestMemoryStore_Update(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()

	sess := newTestSession(uuid.New(), "sess-1", time.Now().Add(time.Hour))
	require.NoError(t, store.Create(ctx, sess))

	sess.LastActivity = sess.LastActivity.Add(time.Minute)
	require.NoError(t, store.Update(ctx, sess))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess.LastActivity, got.LastActivity)

	missing := newTestSession(uuid.New(), "ghost", time.Now().Add(time.Hour))
	assert.ErrorIs(t, store.Update(ctx, missing), session.ErrNotFound)
}

func TestMemoryStore_DeleteMaintainsIndex(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.Create(ctx, newTestSession(userID, "a", time.Now().Add(time.Hour))))
	require.NoError(t, store.Create(ctx, newTestSession(userID, "b", time.Now().Add(time.Hour))))

	ok, err := store.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := store.CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ok, err = store.Delete(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)

	// Last session gone: the user's index entry goes with it
	count, err = store.CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	ok, err = store.Delete(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ListByUser(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, store.Create(ctx, newTestSession(alice, "a1", time.Now().Add(time.Hour))))
	require.NoError(t, store.Create(ctx, newTestSession(alice, "a2", time.Now().Add(time.Hour))))
	require.NoError(t, store.Create(ctx, newTestSession(bob, "b1", time.Now().Add(time.Hour))))

	sessions, err := store.ListByUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	for _, sess := range sessions {
		assert.Equal(t, alice, sess.UserID)
	}

	sessions, err = store.ListByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, store.Create(ctx, newTestSession(alice, "a-old", now.Add(-time.Minute))))
	require.NoError(t, store.Create(ctx, newTestSession(alice, "a-new", now.Add(time.Hour))))
	require.NoError(t, store.Create(ctx, newTestSession(bob, "b-old", now.Add(-time.Minute))))

	t.Run("scoped", func(t *testing.T) {
		removed, err := store.DeleteExpired(ctx, now, &alice)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		// Bob's expired session untouched by the scoped sweep
		_, err = store.Get(ctx, "b-old")
		assert.NoError(t, err)
	})

	t.Run("process wide", func(t *testing.T) {
		removed, err := store.DeleteExpired(ctx, now, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		_, err = store.Get(ctx, "a-new")
		assert.NoError(t, err)
		assert.Equal(t, 1, store.Len())
	})
}
