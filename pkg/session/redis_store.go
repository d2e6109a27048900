package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	userKeyPrefix    = "user_sessions:"
)

// RedisStore implements Store on Redis. Choosing it over MemoryStore is
// an explicit behavioral change: sessions survive process restarts and
// are visible to every instance sharing the Redis deployment.
//
// Each session lives as a JSON value under "session:{id}" with a TTL
// running to its refresh expiry, so stale records age out of Redis on
// their own once they can no longer seed a renewal. The per-user index
// is a set under "user_sessions:{uid}"; ids whose session key has aged
// out are pruned from the set on read.
type RedisStore struct {
	client *redis.Client
	now    Clock
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisStoreClock replaces the store's time source. Key TTLs are
// derived from it, so it must match the clock of the Manager writing
// the sessions.
func WithRedisStoreClock(clock Clock) RedisStoreOption {
	return func(s *RedisStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new session and indexes it under its owner.
func (s *RedisStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return ErrInvalidSession
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := session.RefreshExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrInvalidSession
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.ID, data, ttl)
	pipe.SAdd(ctx, userKeyPrefix+session.UserID.String(), session.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// Get retrieves a session by identifier. No expiry check, no mutation.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Update overwrites an existing session, preserving its key TTL.
func (s *RedisStore) Update(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return ErrInvalidSession
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, sessionKeyPrefix+session.ID, data, redis.KeepTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session and its index entry.
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	pipe.SRem(ctx, userKeyPrefix+session.UserID.String(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns all sessions owned by the given user, pruning
// index entries whose session key has already aged out.
func (s *RedisStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	userKey := userKeyPrefix + userID.String()
	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKeyPrefix + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(values))
	var stale []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var session Session
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			stale = append(stale, ids[i])
			continue
		}
		sessions = append(sessions, &session)
	}

	if len(stale) > 0 {
		_ = s.client.SRem(ctx, userKey, stale...).Err()
	}

	return sessions, nil
}

// CountByUser returns the number of live index entries for the user.
func (s *RedisStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	sessions, err := s.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

// DeleteExpired removes sessions whose absolute expiry has passed.
// Redis ages out keys at the refresh bound on its own; this sweep
// covers the window between absolute expiry and that bound.
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time, userID *uuid.UUID) (int, error) {
	if userID != nil {
		return s.deleteExpiredForUser(ctx, now, *userID)
	}

	removed := 0
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(sessionKeyPrefix):]
		session, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		if !session.ExpiresAt.After(now) {
			if ok, _ := s.Delete(ctx, id); ok {
				removed++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

func (s *RedisStore) deleteExpiredForUser(ctx context.Context, now time.Time, userID uuid.UUID) (int, error) {
	sessions, err := s.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, session := range sessions {
		if !session.ExpiresAt.After(now) {
			if ok, _ := s.Delete(ctx, session.ID); ok {
				removed++
			}
		}
	}
	return removed, nil
}
