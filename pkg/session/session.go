package session

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one active login for a storefront user.
type Session struct {
	ID               string    `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Role             string    `json:"role"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
	LoginTime        time.Time `json:"login_time"`
	LastActivity     time.Time `json:"last_activity"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// NewSessionParams carries the identity snapshot captured at login.
// Email, Name and Role are denormalized here and never re-synced until
// the user logs in again.
type NewSessionParams struct {
	UserID    uuid.UUID
	Email     string
	Name      string
	Role      string
	IPAddress string
	UserAgent string
}

// IsExpired reports whether the session has passed its absolute expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return s != nil && now.After(s.ExpiresAt)
}

// IsIdle reports whether the gap since the last validated activity
// exceeds the idle timeout.
func (s *Session) IsIdle(now time.Time, idleTimeout time.Duration) bool {
	return s != nil && now.Sub(s.LastActivity) > idleTimeout
}

// RemainingTTL returns how long the session is still valid. Callers use
// it to derive the cookie Max-Age. Returns zero for expired sessions.
func (s *Session) RemainingTTL(now time.Time) time.Duration {
	if s == nil || now.After(s.ExpiresAt) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// Renewable reports whether an expired session is still inside the
// grace window and its refresh bound, i.e. readable for minting a
// replacement session under the same identity.
func (s *Session) Renewable(now time.Time, grace time.Duration) bool {
	if s == nil {
		return false
	}
	if now.After(s.ExpiresAt.Add(grace)) {
		return false
	}
	return now.Before(s.RefreshExpiresAt)
}
