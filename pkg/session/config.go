package session

import (
	"net/http"
	"time"
)

// Config holds session lifecycle configuration.
type Config struct {
	// CookieName is the name of the session cookie (default: "session")
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"session"`

	// MaxAge is the absolute session lifetime from creation.
	MaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`

	// IdleTimeout is the inactivity window after which validation fails.
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"2h"`

	// RefreshMaxAge bounds how long after login a session may still seed
	// a replacement through the renew flow.
	RefreshMaxAge time.Duration `env:"SESSION_REFRESH_MAX_AGE" envDefault:"168h"`

	// GracePeriod is how long past absolute expiry a session remains
	// readable for renewal.
	GracePeriod time.Duration `env:"SESSION_GRACE_PERIOD" envDefault:"1h"`

	// MaxConcurrentSessions caps live sessions per user; the oldest by
	// login time is evicted when a create would exceed it.
	MaxConcurrentSessions int `env:"SESSION_MAX_CONCURRENT" envDefault:"5"`

	// ExtendOnActivity controls whether validation touches LastActivity
	// and slides ExpiresAt forward past the halfway point of MaxAge.
	ExtendOnActivity bool `env:"SESSION_EXTEND_ON_ACTIVITY" envDefault:"true"`

	// EnforceIPBinding turns the IP-mismatch signal from a logged
	// warning into a hard validation failure.
	EnforceIPBinding bool `env:"SESSION_ENFORCE_IP_BINDING" envDefault:"false"`

	// CleanupInterval for the expired-session sweep (0 to disable).
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	// SecureCookies enables the Secure flag on session cookies.
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	// SameSite is the cookie SameSite policy: "strict", "lax" or "none".
	SameSite string `env:"SESSION_SAME_SITE" envDefault:"strict"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		CookieName:            "session",
		MaxAge:                24 * time.Hour,
		IdleTimeout:           2 * time.Hour,
		RefreshMaxAge:         7 * 24 * time.Hour,
		GracePeriod:           time.Hour,
		MaxConcurrentSessions: 5,
		ExtendOnActivity:      true,
		EnforceIPBinding:      false,
		CleanupInterval:       5 * time.Minute,
		SecureCookies:         false,
		SameSite:              "strict",
	}
}

// SameSiteMode maps the configured SameSite string to its http constant.
func (c Config) SameSiteMode() http.SameSite {
	switch c.SameSite {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
