package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store using in-process maps: a primary map
// keyed by session identifier and a reverse index from user to owned
// identifiers. Both are mutated under one lock so they cannot drift.
//
// Nothing is persisted: a process restart discards all sessions and
// forces re-authentication. That is the store's contract, not an
// omission — substituting a persistent backend is an explicit
// deployment decision (see RedisStore).
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byUser   map[uuid.UUID]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		byUser:   make(map[uuid.UUID]map[string]struct{}),
	}
}

// Create stores a new session and indexes it under its owner.
func (m *MemoryStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *session
	m.sessions[cp.ID] = &cp

	ids, ok := m.byUser[cp.UserID]
	if !ok {
		ids = make(map[string]struct{})
		m.byUser[cp.UserID] = ids
	}
	ids[cp.ID] = struct{}{}
	return nil
}

// Get retrieves a session by identifier. No expiry check, no mutation.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *session
	return &cp, nil
}

// Update overwrites an existing session.
func (m *MemoryStore) Update(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.ID]; !ok {
		return ErrNotFound
	}

	cp := *session
	m.sessions[cp.ID] = &cp
	return nil
}

// Delete removes a session from the primary map and its owner's index.
// The owning user's index entry is dropped when its last session goes,
// so the index never accumulates empty sets.
func (m *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteLocked(id), nil
}

func (m *MemoryStore) deleteLocked(id string) bool {
	session, ok := m.sessions[id]
	if !ok {
		return false
	}

	delete(m.sessions, id)
	if ids, ok := m.byUser[session.UserID]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(m.byUser, session.UserID)
		}
	}
	return true
}

// ListByUser returns copies of all sessions owned by the given user.
func (m *MemoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byUser[userID]
	sessions := make([]*Session, 0, len(ids))
	for id := range ids {
		if session, ok := m.sessions[id]; ok {
			cp := *session
			sessions = append(sessions, &cp)
		}
	}
	return sessions, nil
}

// CountByUser returns the number of sessions owned by the given user.
func (m *MemoryStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byUser[userID]), nil
}

// DeleteExpired removes sessions whose absolute expiry has passed,
// optionally scoped to one user.
func (m *MemoryStore) DeleteExpired(ctx context.Context, now time.Time, userID *uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	if userID != nil {
		for id := range m.byUser[*userID] {
			if session, ok := m.sessions[id]; ok && !session.ExpiresAt.After(now) {
				if m.deleteLocked(id) {
					removed++
				}
			}
		}
		return removed, nil
	}

	for id, session := range m.sessions {
		if !session.ExpiresAt.After(now) {
			if m.deleteLocked(id) {
				removed++
			}
		}
	}
	return removed, nil
}

// Len returns the total number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
