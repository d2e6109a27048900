package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playtopup/storefront/pkg/session"
)

func setupRedisStore(t *testing.T) (*session.RedisStore, *miniredis.Miniredis, *fakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := newFakeClock()
	store := session.NewRedisStore(client, session.WithRedisStoreClock(clk.Now))
	return store, mr, clk
}

func redisTestSession(clk *fakeClock, userID uuid.UUID) *session.Session {
	now := clk.Now()
	return &session.Session{
		ID:               "tok-" + uuid.NewString(),
		UserID:           userID,
		Email:            "buyer@example.com",
		Name:             "Buyer",
		Role:             "customer",
		LoginTime:        now,
		LastActivity:     now,
		ExpiresAt:        now.Add(24 * time.Hour),
		RefreshExpiresAt: now.Add(30 * 24 * time.Hour),
	}
}

func TestRedisStore_CreateGetRoundTrip(t *testing.T) {
	store, _, clk := setupRedisStore(t)
	ctx := context.Background()
	userID := uuid.New()

	created := redisTestSession(clk, userID)
	require.NoError(t, store.Create(ctx, created))

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "buyer@example.com", got.Email)
	assert.True(t, got.ExpiresAt.Equal(created.ExpiresAt))

	sessions, err := store.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, created.ID, sessions[0].ID)
}

func TestRedisStore_KeyTTLFollowsStoreClock(t *testing.T) {
	store, mr, clk := setupRedisStore(t)
	ctx := context.Background()

	// The fake clock runs at a fixed virtual date far from the wall
	// clock. The key TTL must be the refresh window measured on the
	// store's clock; deriving it from the wall clock would produce a
	// bogus duration or reject the create outright.
	created := redisTestSession(clk, uuid.New())
	require.NoError(t, store.Create(ctx, created))

	assert.Equal(t, 30*24*time.Hour, mr.TTL("session:"+created.ID))
}

func TestRedisStore_CreateRejectsSpentRefreshBound(t *testing.T) {
	store, _, clk := setupRedisStore(t)

	created := redisTestSession(clk, uuid.New())
	created.RefreshExpiresAt = clk.Now().Add(-time.Minute)

	err := store.Create(context.Background(), created)
	assert.ErrorIs(t, err, session.ErrInvalidSession)
}

func TestRedisStore_UpdateMissing(t *testing.T) {
	store, _, clk := setupRedisStore(t)

	ghost := redisTestSession(clk, uuid.New())
	err := store.Update(context.Background(), ghost)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRedisStore_DeleteIsIdempotent(t *testing.T) {
	store, _, clk := setupRedisStore(t)
	ctx := context.Background()

	created := redisTestSession(clk, uuid.New())
	require.NoError(t, store.Create(ctx, created))

	removed, err := store.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRedisStore_ListByUserPrunesStaleIndex(t *testing.T) {
	store, mr, clk := setupRedisStore(t)
	ctx := context.Background()
	userID := uuid.New()

	kept := redisTestSession(clk, userID)
	aged := redisTestSession(clk, userID)
	require.NoError(t, store.Create(ctx, kept))
	require.NoError(t, store.Create(ctx, aged))

	// Simulate Redis aging out a session key while its index entry
	// lingers in the user's set.
	mr.Del("session:" + aged.ID)

	sessions, err := store.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, kept.ID, sessions[0].ID)

	count, err := store.CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRedisStore_DeleteExpired(t *testing.T) {
	store, _, clk := setupRedisStore(t)
	ctx := context.Background()
	userID := uuid.New()

	expired := redisTestSession(clk, userID)
	expired.ExpiresAt = clk.Now().Add(time.Hour)
	live := redisTestSession(clk, userID)
	require.NoError(t, store.Create(ctx, expired))
	require.NoError(t, store.Create(ctx, live))

	removed, err := store.DeleteExpired(ctx, clk.Now().Add(2*time.Hour), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, expired.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = store.Get(ctx, live.ID)
	assert.NoError(t, err)
}
