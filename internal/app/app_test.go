package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/microsolutions/showcase/internal/config"
	"github.com/microsolutions/showcase/internal/database/dbtest"
	"github.com/microsolutions/showcase/internal/middleware"
	"github.com/microsolutions/showcase/internal/modules/adminuser"
	"github.com/microsolutions/showcase/internal/modules/asset/assettest"
	"github.com/microsolutions/showcase/internal/modules/auth/pin"
	"github.com/microsolutions/showcase/internal/modules/gateway"
	pkgcron "github.com/microsolutions/showcase/internal/pkg/cron"
	"github.com/microsolutions/showcase/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.AppConfig{
		Port:         2333,
		Env:          "production",
		AdminEmail:   "admin@example.com",
		AdminPIN:     "1234",
		PINCooldown:  30 * time.Second,
		HTTPCacheTTL: 30 * time.Second,
		CacheFile:    filepath.Join(t.TempDir(), "solutions.json"),
	}
	logger := zap.NewNop()
	cache := middleware.NewMemoryStore()
	hub := gateway.NewHub(nil, logger, nil)
	db := dbtest.Open(t)

	a := &App{
		cfg:      cfg,
		db:       db,
		hub:      hub,
		signer:   jwt.NewSigner("test-secret"),
		cache:    cache,
		pinStore: pin.NewMemoryStore(),
		svc:      newServices(cfg, db, assettest.NewMemoryStore(), gateway.NewNotifier(hub, cache, logger), logger),
		logger:   logger,
		cancel:   func() {},
		sched:    pkgcron.New(logger),
	}
	registerCronJobs(a.sched, a.svc, logger)
	a.router = newRouter(cfg, logger)
	a.registerRoutes()
	return a
}

func do(t *testing.T, a *App, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func tokenFrom(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func signIn(t *testing.T, a *App) string {
	t.Helper()
	_, err := a.svc.Users.Create(context.Background(), adminuser.CreateDTO{Email: "admin@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	gate := tokenFrom(t, do(t, a, http.MethodPost, "/api/v1/auth/pin", map[string]string{"pin": "1234"}, nil))
	return tokenFrom(t, do(t, a, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "admin@example.com", "password": "correct-horse"},
		map[string]string{"X-Gate-Token": gate}))
}

func TestLoginRequiresGateToken(t *testing.T) {
	a := newTestApp(t)
	w := do(t, a, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "admin@example.com", "password": "x"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, http.StatusUnauthorized, do(t, a, http.MethodGet, "/api/v1/admin/solutions", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, a, http.MethodGet, "/api/v1/admin/company", nil, nil).Code)
}

func TestWritePurgesPublicCache(t *testing.T) {
	a := newTestApp(t)
	token := signIn(t, a)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	first := do(t, a, http.MethodGet, "/api/v1/solutions", nil, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "miss", first.Header().Get(middleware.HTTPCacheHeader))
	assert.Equal(t, "hit", do(t, a, http.MethodGet, "/api/v1/solutions", nil, nil).Header().Get(middleware.HTTPCacheHeader))

	created := do(t, a, http.MethodPost, "/api/v1/admin/solutions", map[string]any{
		"title": "Invoice reader", "subtitle": "OCR", "description": "Reads **invoices**",
		"status": "live",
		"images": []map[string]string{
			{"url": "https://cdn.example.com/a.jpg"},
			{"url": "https://cdn.example.com/b.jpg"},
			{"url": "https://cdn.example.com/c.jpg"},
		},
	}, bearer)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	after := do(t, a, http.MethodGet, "/api/v1/solutions", nil, nil)
	require.Equal(t, http.StatusOK, after.Code)
	assert.Equal(t, "miss", after.Header().Get(middleware.HTTPCacheHeader))

	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(after.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "<p>Reads <strong>invoices</strong></p>", list.Data[0]["description_html"])
}

func TestSingletonRoundTrip(t *testing.T) {
	a := newTestApp(t)
	bearer := map[string]string{"Authorization": "Bearer " + signIn(t, a)}

	w := do(t, a, http.MethodPut, "/api/v1/admin/statistics", map[string]any{"partners": 4}, bearer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, a, http.MethodGet, "/api/v1/statistics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 4, stats["partners"])
}

func TestRefreshFallbackCacheJob(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.sched.Run(context.Background(), "refresh_fallback_cache"))
	assert.NotNil(t, a.svc.Cache.Load())
	assert.Empty(t, a.svc.Cache.Load())

	require.Error(t, a.sched.Run(context.Background(), "missing"))
}

func TestHealthAndStats(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, http.StatusOK, do(t, a, http.MethodGet, "/health", nil, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, a, http.MethodGet, "/gateway/stats", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, a, http.MethodGet, "/nope", nil, nil).Code)
}

func TestMatchOriginPattern(t *testing.T) {
	assert.True(t, matchOriginPattern("*.example.com", "app.example.com"))
	assert.True(t, matchOriginPattern("localhost:*", "localhost:5173"))
	assert.False(t, matchOriginPattern("example.com", "evil.com"))
	assert.Equal(t, "example.com:8080", extractOriginHost("https://example.com:8080"))
}
