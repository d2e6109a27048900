package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/playtopup/storefront/pkg/clientip"
	"github.com/playtopup/storefront/pkg/session"
	"github.com/playtopup/storefront/pkg/useragent"
)

// Service exposes the authentication endpoints of the storefront:
// login, logout, session inspection and grace-window renewal. It is the
// only place that touches both the user repository and the session
// manager.
type Service struct {
	users     UserRepository
	sessions  *session.Manager
	transport session.Transport
	log       *slog.Logger
}

// NewService wires the auth endpoints to their collaborators.
func NewService(users UserRepository, sessions *session.Manager, transport session.Transport, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		users:     users,
		sessions:  sessions,
		transport: transport,
		log:       log,
	}
}

// dummyPasswordHash is a valid cost-10 bcrypt hash of a throwaway
// password. Comparing against it keeps the unknown-email path as slow
// as a real password check; a malformed hash would make bcrypt bail
// out early and reopen the timing oracle.
const dummyPasswordHash = "$2b$10$NTwEhOj1Vm8lAlh03eIKieKGbmGGH59vw3/dxKRSF705vuyrltD4K"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type deviceResponse struct {
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
	IPAddress string    `json:"ip_address"`
	LoginTime time.Time `json:"login_time"`
	Current   bool      `json:"current"`
}

// Login verifies credentials and mints a session. Failed lookups and
// bad passwords share one response so the endpoint does not leak which
// emails exist.
func (s *Service) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := s.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn comparable time so missing users are not distinguishable
			_ = bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(req.Password))
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.log.ErrorContext(r.Context(), "user lookup failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := s.sessions.Create(r.Context(), session.NewSessionParams{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		IPAddress: clientip.GetIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		s.log.ErrorContext(r.Context(), "session create failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.setToken(w, sess); err != nil {
		_, _ = s.sessions.Destroy(r.Context(), sess.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// Logout destroys the current session and clears the cookie. Missing or
// stale cookies still get a 204: logout is idempotent.
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := s.transport.GetToken(r); err == nil {
		_, _ = s.sessions.Destroy(r.Context(), token)
	}
	_ = s.transport.ClearToken(w)
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll destroys every other session of the current user, keeping
// the one making the request.
func (s *Service) LogoutAll(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	removed, err := s.sessions.DestroyAllForUser(r.Context(), sess.UserID, sess.ID)
	if err != nil {
		s.log.ErrorContext(r.Context(), "bulk logout incomplete",
			slog.Any("error", err), slog.Int("removed", removed))
	}

	writeJSON(w, http.StatusOK, map[string]int{"sessions_removed": removed})
}

// CurrentSession returns the identity snapshot of the validated session.
func (s *Service) CurrentSession(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// ListSessions returns the user's live sessions as a device overview.
func (s *Service) ListSessions(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	sessions, err := s.sessions.ListForUser(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	devices := make([]deviceResponse, 0, len(sessions))
	for _, other := range sessions {
		ua := useragent.Parse(other.UserAgent)
		devices = append(devices, deviceResponse{
			Browser:   ua.Browser,
			OS:        ua.OS,
			Device:    string(ua.Device),
			IPAddress: other.IPAddress,
			LoginTime: other.LoginTime,
			Current:   other.ID == sess.ID,
		})
	}

	writeJSON(w, http.StatusOK, devices)
}

// Renew exchanges a recently expired session for a fresh one under the
// same identity. Valid only inside the grace window and refresh bound;
// everything else is a generic 401.
func (s *Service) Renew(w http.ResponseWriter, r *http.Request) {
	token, err := s.transport.GetToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sess, err := s.sessions.Renew(r.Context(), token, clientip.GetIP(r), r.UserAgent())
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrNotRenewable) {
			_ = s.transport.ClearToken(w)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.setToken(w, sess); err != nil {
		_, _ = s.sessions.Destroy(r.Context(), sess.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// Cleanup triggers an on-demand sweep of expired sessions. Mounted
// behind an admin-role check; safe to call repeatedly.
func (s *Service) Cleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := s.sessions.CleanupExpired(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"sessions_removed": removed})
}

func (s *Service) setToken(w http.ResponseWriter, sess *session.Session) error {
	return s.transport.SetToken(w, sess.ID, time.Until(sess.ExpiresAt))
}

func toSessionResponse(sess *session.Session) sessionResponse {
	return sessionResponse{
		UserID:    sess.UserID.String(),
		Email:     sess.Email,
		Name:      sess.Name,
		Role:      sess.Role,
		ExpiresAt: sess.ExpiresAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
