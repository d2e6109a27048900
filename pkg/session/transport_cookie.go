package session

import (
	"net/http"
	"time"

	"github.com/playtopup/storefront/pkg/cookie"
)

// CookieTransport carries the session identifier in a signed HttpOnly
// cookie. Secure and SameSite attributes come from the session config.
type CookieTransport struct {
	cookies  *cookie.Manager
	name     string
	secure   bool
	sameSite http.SameSite
}

// NewCookieTransport creates a cookie-based transport.
func NewCookieTransport(cookies *cookie.Manager, cfg Config) *CookieTransport {
	return &CookieTransport{
		cookies:  cookies,
		name:     cfg.CookieName,
		secure:   cfg.SecureCookies,
		sameSite: cfg.SameSiteMode(),
	}
}

// GetToken extracts and verifies the session identifier from the cookie.
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.cookies.GetSigned(r, t.name)
	if err != nil {
		return "", ErrNotFound
	}
	return token, nil
}

// SetToken stores the signed session identifier in a cookie whose
// Max-Age matches the session's remaining lifetime.
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	return t.cookies.SetSigned(w, t.name, token,
		cookie.WithMaxAge(int(ttl.Seconds())),
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSecure(t.secure),
		cookie.WithSameSite(t.sameSite),
	)
}

// ClearToken expires the session cookie.
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookies.Delete(w, t.name)
	return nil
}
