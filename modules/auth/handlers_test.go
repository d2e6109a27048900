package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/playtopup/storefront/modules/auth"
	"github.com/playtopup/storefront/pkg/session"
)

type testEnv struct {
	users   *auth.MemoryUserRepository
	manager *session.Manager
	router  chi.Router
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := session.DefaultConfig()
	cfg.CleanupInterval = 0

	manager := session.New(session.WithConfig(cfg))
	t.Cleanup(func() { _ = manager.Close() })

	transport := session.NewHeaderTransport("X-Session-Token")
	users := auth.NewMemoryUserRepository()
	svc := auth.NewService(users, manager, transport, nil)

	r := chi.NewRouter()
	r.Mount("/auth", auth.Router(svc, manager, transport))

	return &testEnv{users: users, manager: manager, router: r}
}

func (e *testEnv) addUser(t *testing.T, email, password, role string) uuid.UUID {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	id := uuid.New()
	e.users.Add(&auth.User{
		ID:           id,
		Email:        email,
		Name:         "Test User",
		Role:         role,
		PasswordHash: string(hash),
	})
	return id
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	w := e.do("POST", "/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	token := w.Header().Get("X-Session-Token")
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		r.Header.Set("X-Session-Token", token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func TestLogin(t *testing.T) {
	env := setupEnv(t)
	env.addUser(t, "buyer@example.com", "correct horse", "customer")

	t.Run("success", func(t *testing.T) {
		w := env.do("POST", "/auth/login", `{"email":"buyer@example.com","password":"correct horse"}`, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Email     string    `json:"email"`
			Role      string    `json:"role"`
			ExpiresAt time.Time `json:"expires_at"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "buyer@example.com", resp.Email)
		assert.Equal(t, "customer", resp.Role)
		assert.True(t, resp.ExpiresAt.After(time.Now()))
		assert.NotEmpty(t, w.Header().Get("X-Session-Token"))
	})

	t.Run("wrong password", func(t *testing.T) {
		w := env.do("POST", "/auth/login", `{"email":"buyer@example.com","password":"wrong"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user matches wrong password response", func(t *testing.T) {
		wUnknown := env.do("POST", "/auth/login", `{"email":"ghost@example.com","password":"x"}`, "")
		wWrong := env.do("POST", "/auth/login", `{"email":"buyer@example.com","password":"x"}`, "")

		assert.Equal(t, http.StatusUnauthorized, wUnknown.Code)
		assert.Equal(t, wWrong.Body.String(), wUnknown.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		w := env.do("POST", "/auth/login", `{`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogout(t *testing.T) {
	env := setupEnv(t)
	env.addUser(t, "buyer@example.com", "pw123456", "customer")
	token := env.login(t, "buyer@example.com", "pw123456")

	w := env.do("POST", "/auth/logout", "", token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// The session is gone
	w = env.do("GET", "/auth/session", "", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logout is idempotent
	w = env.do("POST", "/auth/logout", "", token)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCurrentSession(t *testing.T) {
	env := setupEnv(t)
	userID := env.addUser(t, "buyer@example.com", "pw123456", "customer")
	token := env.login(t, "buyer@example.com", "pw123456")

	w := env.do("GET", "/auth/session", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, userID.String(), resp.UserID)
	assert.Equal(t, "buyer@example.com", resp.Email)

	t.Run("401 without token", func(t *testing.T) {
		w := env.do("GET", "/auth/session", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLogoutAll(t *testing.T) {
	env := setupEnv(t)
	env.addUser(t, "buyer@example.com", "pw123456", "customer")

	tokens := make([]string, 0, 3)
	for range 3 {
		tokens = append(tokens, env.login(t, "buyer@example.com", "pw123456"))
	}
	current := tokens[2]

	w := env.do("POST", "/auth/logout-all", "", current)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp["sessions_removed"])

	// Current session survives, the others do not
	w = env.do("GET", "/auth/session", "", current)
	assert.Equal(t, http.StatusOK, w.Code)

	for _, token := range tokens[:2] {
		w = env.do("GET", "/auth/session", "", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestListSessions(t *testing.T) {
	env := setupEnv(t)
	env.addUser(t, "buyer@example.com", "pw123456", "customer")

	_ = env.login(t, "buyer@example.com", "pw123456")
	current := env.login(t, "buyer@example.com", "pw123456")

	w := env.do("GET", "/auth/sessions", "", current)
	require.Equal(t, http.StatusOK, w.Code)

	var devices []struct {
		Browser string `json:"browser"`
		Current bool   `json:"current"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &devices))
	require.Len(t, devices, 2)

	currentCount := 0
	for _, d := range devices {
		if d.Current {
			currentCount++
		}
	}
	assert.Equal(t, 1, currentCount)
}

func TestCleanup(t *testing.T) {
	env := setupEnv(t)
	env.addUser(t, "admin@example.com", "pw123456", "admin")
	env.addUser(t, "buyer@example.com", "pw123456", "customer")

	t.Run("requires admin role", func(t *testing.T) {
		token := env.login(t, "buyer@example.com", "pw123456")
		w := env.do("POST", "/auth/maintenance/cleanup", "", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin sweep", func(t *testing.T) {
		token := env.login(t, "admin@example.com", "pw123456")
		w := env.do("POST", "/auth/maintenance/cleanup", "", token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]int
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp["sessions_removed"]) // nothing expired yet
	})
}

func TestRenew(t *testing.T) {
	// The renew flow needs a session past its expiry, so this test
	// drives the manager with a virtual clock behind the same router.
	cfg := session.DefaultConfig()
	cfg.CleanupInterval = 0
	cfg.MaxAge = time.Hour
	cfg.GracePeriod = time.Hour

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	manager := session.New(session.WithConfig(cfg), session.WithClock(clock))
	t.Cleanup(func() { _ = manager.Close() })

	transport := session.NewHeaderTransport("X-Session-Token")
	users := auth.NewMemoryUserRepository()
	svc := auth.NewService(users, manager, transport, nil)

	r := chi.NewRouter()
	r.Mount("/auth", auth.Router(svc, manager, transport))
	env := &testEnv{users: users, manager: manager, router: r}

	env.addUser(t, "buyer@example.com", "pw123456", "customer")
	token := env.login(t, "buyer@example.com", "pw123456")

	// Expired 30 minutes ago, still inside the grace window
	current = current.Add(90 * time.Minute)

	w := env.do("POST", "/auth/session/renew", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	renewed := w.Header().Get("X-Session-Token")
	require.NotEmpty(t, renewed)
	assert.NotEqual(t, token, renewed)

	// The fresh session validates; the stale one stays dead
	w = env.do("GET", "/auth/session", "", renewed)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("POST", "/auth/session/renew", "", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Far past the grace window nothing is renewable
	current = current.Add(3 * time.Hour)
	w = env.do("POST", "/auth/session/renew", "", renewed)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
