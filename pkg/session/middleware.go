package session

import (
	"net/http"

	"github.com/playtopup/storefront/pkg/clientip"
)

// Authenticate validates the request's session and, on success, puts it
// on the request context. Requests without a valid session pass through
// unauthenticated; route handlers decide what that means.
func Authenticate(m *Manager, t Transport) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := t.GetToken(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := m.Validate(r.Context(), token, clientip.GetIP(r))
			if err != nil {
				_ = t.ClearToken(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession rejects requests without a valid session. The 401 body
// is deliberately generic: callers never learn whether the session was
// missing, expired or rejected for an IP mismatch.
func RequireSession(m *Manager, t Transport) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := t.GetToken(r)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := m.Validate(r.Context(), token, clientip.GetIP(r))
			if err != nil {
				_ = t.ClearToken(w)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireRole rejects authenticated requests whose session role does
// not match. Mount behind RequireSession.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := FromContext(r.Context())
			if !ok || sess.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
