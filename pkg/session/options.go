package session

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithStore sets a custom session store.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithConfig sets custom configuration.
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock sets the time source. Tests use it to advance a virtual
// clock through expiry windows.
func WithClock(clock Clock) Option {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithMaxAge sets the absolute session lifetime.
func WithMaxAge(d time.Duration) Option {
	return func(m *Manager) {
		m.config.MaxAge = d
	}
}

// WithIdleTimeout sets the inactivity window.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.config.IdleTimeout = d
	}
}

// WithMaxConcurrentSessions sets the per-user concurrency cap.
func WithMaxConcurrentSessions(n int) Option {
	return func(m *Manager) {
		m.config.MaxConcurrentSessions = n
	}
}

// WithExtendOnActivity toggles activity-based expiry extension.
func WithExtendOnActivity(enabled bool) Option {
	return func(m *Manager) {
		m.config.ExtendOnActivity = enabled
	}
}

// WithEnforceIPBinding turns IP mismatches into hard validation
// failures instead of logged warnings.
func WithEnforceIPBinding(enabled bool) Option {
	return func(m *Manager) {
		m.config.EnforceIPBinding = enabled
	}
}

// WithCleanupInterval sets the periodic sweep interval (0 disables).
func WithCleanupInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.config.CleanupInterval = d
	}
}
