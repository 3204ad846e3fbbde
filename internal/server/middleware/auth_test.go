package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/logindash/internal/models"
	"github.com/iudanet/logindash/internal/server/session"
	"github.com/iudanet/logindash/internal/server/storage"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// mockUserStorage отдает пользователей из map
type mockUserStorage struct {
	storage.UserStorage
	users map[string]*models.User
	err   error
}

func (m *mockUserStorage) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func newTestSessions(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(session.Config{Secret: []byte("test-secret-key"), SessionTTL: time.Hour})
	require.NoError(t, err)
	return m
}

// sessionRequest создает запрос с cookie сессии для user
func sessionRequest(t *testing.T, sessions *session.Manager, user *models.User, target string) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Establish(rec, user, false))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

// identityHandler записывает username текущего пользователя или "anonymous"
func identityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user, ok := session.CurrentUser(r.Context()); ok {
			_, _ = w.Write([]byte(user.Username))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	}
}

func TestLoadIdentity_Authenticated(t *testing.T) {
	sessions := newTestSessions(t)
	alice := &models.User{ID: "user-1", Username: "alice"}
	users := &mockUserStorage{users: map[string]*models.User{alice.ID: alice}}

	handler := LoadIdentity(setupTestLogger(), sessions, users)(identityHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(t, sessions, alice, "/dashboard"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestLoadIdentity_Anonymous(t *testing.T) {
	sessions := newTestSessions(t)
	handler := LoadIdentity(setupTestLogger(), sessions, &mockUserStorage{})(identityHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "anonymous", rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "no cookie should be touched for anonymous clients")
}

func TestLoadIdentity_InvalidToken(t *testing.T) {
	sessions := newTestSessions(t)
	handler := LoadIdentity(setupTestLogger(), sessions, &mockUserStorage{})(identityHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName(), Value: "garbage"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "anonymous", rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestLoadIdentity_DeletedUser(t *testing.T) {
	sessions := newTestSessions(t)
	ghost := &models.User{ID: "deleted", Username: "ghost"}
	handler := LoadIdentity(setupTestLogger(), sessions, &mockUserStorage{users: map[string]*models.User{}})(identityHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(t, sessions, ghost, "/dashboard"))

	assert.Equal(t, "anonymous", rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestLoadIdentity_StorageUnavailable(t *testing.T) {
	sessions := newTestSessions(t)
	alice := &models.User{ID: "user-1", Username: "alice"}
	users := &mockUserStorage{err: fmt.Errorf("%w: timeout", storage.ErrUnavailable)}

	handler := LoadIdentity(setupTestLogger(), sessions, users)(identityHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(t, sessions, alice, "/dashboard"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireAuth_RedirectsAnonymous(t *testing.T) {
	handler := RequireAuth(setupTestLogger())(identityHandler())

	tests := []struct {
		target string
		next   string
	}{
		{"/dashboard", "/dashboard"},
		{"/dashboard?tab=history", "/dashboard?tab=history"},
		{"/logout", "/logout"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusFound, rec.Code)
			location, err := url.Parse(rec.Header().Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, "/login", location.Path)
			assert.Equal(t, tt.next, location.Query().Get("next"))
		})
	}
}

func TestRequireAuth_AllowsAuthenticated(t *testing.T) {
	handler := RequireAuth(setupTestLogger())(identityHandler())

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(session.WithUser(req.Context(), &models.User{ID: "1", Username: "alice"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login", LoginURL(""))
	assert.Equal(t, "/login", LoginURL("/"))
	assert.Equal(t, "/login?next=%2Fdashboard", LoginURL("/dashboard"))
}

func TestRequireAuth_PostHasNoNext(t *testing.T) {
	handler := RequireAuth(setupTestLogger())(identityHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout/confirm", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
