package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for session persistence. Implementations
// must keep their per-user index consistent with the primary records:
// an identifier is either present in both or absent from both.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by identifier without any expiry check or
	// mutation. Callers that need expiry semantics go through the
	// Manager.
	Get(ctx context.Context, id string) (*Session, error)

	// Update overwrites an existing session.
	Update(ctx context.Context, session *Session) error

	// Delete removes a session and reports whether a record existed.
	Delete(ctx context.Context, id string) (bool, error)

	// ListByUser returns all sessions owned by the given user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Session, error)

	// CountByUser returns the number of sessions owned by the given user.
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteExpired removes sessions with ExpiresAt at or before now,
	// optionally scoped to a single user, and returns how many were
	// removed.
	DeleteExpired(ctx context.Context, now time.Time, userID *uuid.UUID) (int, error)
}
