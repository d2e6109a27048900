package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager orchestrates the session lifecycle: creation with per-user
// concurrency capping, validation with idle and absolute expiry,
// grace-window renewal, destruction and periodic cleanup of expired
// records. It is constructed once by the process entry point and passed
// to whatever handles requests; it holds no package-level state.
type Manager struct {
	store  Store
	config Config
	log    *slog.Logger
	now    Clock

	cleanupOnce sync.Once
	done        chan struct{}
}

// New creates a session manager with the given options.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		now:    systemClock,
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.log == nil {
		m.log = slog.New(slog.DiscardHandler)
	}

	return m
}

// Create mints a new session for the given identity. If the user is
// already at the concurrency cap, the oldest session by login time is
// evicted first, so the cap holds once Create returns. Tie-break on
// equal login times is unspecified.
func (m *Manager) Create(ctx context.Context, params NewSessionParams) (*Session, error) {
	if params.UserID == uuid.Nil {
		return nil, ErrInvalidSession
	}

	if err := m.enforceCap(ctx, params.UserID); err != nil {
		return nil, err
	}

	id, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	session := &Session{
		ID:               id,
		UserID:           params.UserID,
		Email:            params.Email,
		Name:             params.Name,
		Role:             params.Role,
		IPAddress:        params.IPAddress,
		UserAgent:        params.UserAgent,
		LoginTime:        now,
		LastActivity:     now,
		ExpiresAt:        now.Add(m.config.MaxAge),
		RefreshExpiresAt: now.Add(m.config.RefreshMaxAge),
	}

	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	m.log.InfoContext(ctx, "session created",
		slog.String("user_id", params.UserID.String()),
		slog.String("role", params.Role),
		slog.Time("expires_at", session.ExpiresAt))

	return session, nil
}

// Validate looks up a session and applies expiry semantics. Expired and
// idle sessions are destroyed on sight and reported as ErrExpired; a
// missing record is ErrNotFound. Callers surface both as "no session".
//
// When activity extension is enabled, a successful validation updates
// LastActivity, and once the session is more than halfway through its
// max age the absolute expiry slides forward to now+MaxAge. Idle
// expiry is evaluated before any extension, so an idle session cannot
// be resurrected by the check that would otherwise extend it.
func (m *Manager) Validate(ctx context.Context, id, ipAddress string) (*Session, error) {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.now()

	if session.IsExpired(now) {
		_, _ = m.store.Delete(ctx, id)
		m.log.DebugContext(ctx, "session expired",
			slog.String("user_id", session.UserID.String()))
		return nil, ErrExpired
	}

	if session.IsIdle(now, m.config.IdleTimeout) {
		_, _ = m.store.Delete(ctx, id)
		m.log.DebugContext(ctx, "session idle timeout",
			slog.String("user_id", session.UserID.String()))
		return nil, ErrExpired
	}

	if ipAddress != "" && session.IPAddress != "" && ipAddress != session.IPAddress {
		m.log.WarnContext(ctx, "session ip mismatch",
			slog.String("user_id", session.UserID.String()),
			slog.String("session_ip", session.IPAddress),
			slog.String("request_ip", ipAddress))
		if m.config.EnforceIPBinding {
			return nil, ErrIPMismatch
		}
	}

	if m.config.ExtendOnActivity {
		session.LastActivity = now
		if now.Sub(session.LoginTime) > m.config.MaxAge/2 {
			session.ExpiresAt = now.Add(m.config.MaxAge)
		}
		if err := m.store.Update(ctx, session); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// Peek reads a session without expiry enforcement or mutation. It
// serves the renew flow, which needs to see a record that Validate
// would already have destroyed. A session further past its expiry than
// the grace period is reported as ErrNotFound.
func (m *Manager) Peek(ctx context.Context, id string) (*Session, error) {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if m.now().After(session.ExpiresAt.Add(m.config.GracePeriod)) {
		return nil, ErrNotFound
	}

	return session, nil
}

// Renew mints a replacement session for one that expired less than the
// grace period ago and is still inside its refresh bound. The stale
// record is destroyed; the replacement carries the same identity
// snapshot under a fresh identifier with fresh expiries.
func (m *Manager) Renew(ctx context.Context, id, ipAddress, userAgent string) (*Session, error) {
	session, err := m.Peek(ctx, id)
	if err != nil {
		return nil, err
	}

	if !session.Renewable(m.now(), m.config.GracePeriod) {
		return nil, ErrNotRenewable
	}

	if _, err := m.store.Delete(ctx, id); err != nil {
		return nil, err
	}

	renewed, err := m.Create(ctx, NewSessionParams{
		UserID:    session.UserID,
		Email:     session.Email,
		Name:      session.Name,
		Role:      session.Role,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
	if err != nil {
		return nil, err
	}

	m.log.InfoContext(ctx, "session renewed",
		slog.String("user_id", session.UserID.String()))

	return renewed, nil
}

// Destroy removes a session. Calling it for an identifier that is
// already gone is not an error; the return value reports whether a
// record was removed.
func (m *Manager) Destroy(ctx context.Context, id string) (bool, error) {
	return m.store.Delete(ctx, id)
}

// DestroyAllForUser removes every session owned by the user except the
// one passed as exceptID (empty to remove all). Deletes are attempted
// independently; one failure does not stop the rest. Returns how many
// sessions were removed.
func (m *Manager) DestroyAllForUser(ctx context.Context, userID uuid.UUID, exceptID string) (int, error) {
	sessions, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	removed := 0
	var lastErr error
	for _, session := range sessions {
		if session.ID == exceptID {
			continue
		}
		ok, err := m.store.Delete(ctx, session.ID)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			removed++
		}
	}

	m.log.InfoContext(ctx, "bulk session destroy",
		slog.String("user_id", userID.String()),
		slog.Int("removed", removed))

	return removed, lastErr
}

// ListForUser returns the user's live (unexpired) sessions, for the
// "active devices" overview.
func (m *Manager) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	sessions, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	live := sessions[:0]
	for _, session := range sessions {
		if !session.IsExpired(now) {
			live = append(live, session)
		}
	}
	return live, nil
}

// CleanupExpired sweeps expired sessions, optionally scoped to one
// user, and returns how many were removed.
func (m *Manager) CleanupExpired(ctx context.Context, userID *uuid.UUID) (int, error) {
	removed, err := m.store.DeleteExpired(ctx, m.now(), userID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.log.InfoContext(ctx, "expired sessions removed", slog.Int("count", removed))
	}
	return removed, nil
}

// StartCleanup launches the periodic sweep. It runs until Close is
// called or the context is cancelled. A zero CleanupInterval disables
// the sweep entirely.
func (m *Manager) StartCleanup(ctx context.Context) {
	if m.config.CleanupInterval <= 0 {
		return
	}

	m.cleanupOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(m.config.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					_, _ = m.CleanupExpired(ctx, nil)
				case <-ctx.Done():
					return
				case <-m.done:
					return
				}
			}
		}()
	})
}

// Close stops the cleanup loop. Safe to call more than once.
func (m *Manager) Close() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	return nil
}

// Config returns the manager's configuration. Handlers read it to
// derive cookie attributes.
func (m *Manager) Config() Config {
	return m.config
}

// enforceCap evicts the user's oldest session by login time when a new
// create would exceed the concurrency cap.
func (m *Manager) enforceCap(ctx context.Context, userID uuid.UUID) error {
	count, err := m.store.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count < m.config.MaxConcurrentSessions {
		return nil
	}

	sessions, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	var oldest *Session
	for _, session := range sessions {
		if oldest == nil || session.LoginTime.Before(oldest.LoginTime) {
			oldest = session
		}
	}
	if oldest == nil {
		return nil
	}

	if _, err := m.store.Delete(ctx, oldest.ID); err != nil {
		return err
	}

	m.log.InfoContext(ctx, "session evicted at concurrency cap",
		slog.String("user_id", userID.String()),
		slog.Time("login_time", oldest.LoginTime))

	return nil
}

// generateToken creates a cryptographically secure opaque identifier.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
