package routes

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/middleware"
	"dwellwatch/internal/repository/sqlite"
	"dwellwatch/internal/service/session"
)

type stubSessions struct{}

func (stubSessions) Submit(source, videoPath string) (session.Info, error) {
	return session.Info{}, session.ErrStopped
}
func (stubSessions) Get(id string) (session.Info, bool) { return session.Info{ID: id}, true }
func (stubSessions) List() []session.Info           { return []session.Info{} }
func (stubSessions) Cancel(id string) error         { return session.ErrNotFound }

func newRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Password = "secret"

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	})
	return SetupRoutes(cfg, logger.Discard(), Services{
		Sessions: stubSessions{},
		Audit:    sqlite.NewAuditRepository(db),
		Metrics:  metrics,
	}), cfg
}

func TestRoutes_PublicEndpoints(t *testing.T) {
	router, _ := newRouter(t)

	for _, path := range []string{"/healthz", "/metrics", "/login"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRoutes_LoginThenAPI(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	form := url.Values{"password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	form = url.Values{"password": {"secret"}}
	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.CookieName, cookies[0].Name)

	for _, path := range []string{"/api/sessions", "/api/violations"} {
		req = httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookies[0])
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/sessions/nope", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_Logout(t *testing.T) {
	router, cfg := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: middleware.AuthToken(cfg.Password)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
