package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequiresAdminScope(t *testing.T) {
	signer := jwt.NewSigner("secret")
	r := gin.New()
	r.GET("/private", Auth(signer), func(c *gin.Context) { c.String(http.StatusOK, CurrentEmail(c)) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/private", nil).Code)

	gate, err := signer.Sign(jwt.Claims{Scope: jwt.ScopeGate}, time.Minute)
	require.NoError(t, err)
	rec := serve(r, http.MethodGet, "/private", http.Header{"Authorization": {"Bearer " + gate}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	admin, err := signer.Sign(jwt.Claims{UserID: "u1", Email: "a@example.com", Scope: jwt.ScopeAdmin}, time.Minute)
	require.NoError(t, err)
	rec = serve(r, http.MethodGet, "/private", http.Header{"Authorization": {"Bearer " + admin}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@example.com", rec.Body.String())
}

func TestRequireGate(t *testing.T) {
	signer := jwt.NewSigner("secret")
	r := gin.New()
	r.POST("/login", RequireGate(signer), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/login", nil).Code)

	gate, err := signer.Sign(jwt.Claims{Scope: jwt.ScopeGate}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/login", http.Header{GateTokenHeader: {gate}}).Code)
}

func TestHTTPCacheServesHitsUntilPurged(t *testing.T) {
	store := NewMemoryStore()
	calls := 0
	r := gin.New()
	r.Use(HTTPCache(store, HTTPCacheOptions{TTL: time.Minute}))
	r.GET("/items", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	first := serve(r, http.MethodGet, "/items", nil)
	assert.Equal(t, "miss", first.Header().Get(HTTPCacheHeader))
	second := serve(r, http.MethodGet, "/items", nil)
	assert.Equal(t, "hit", second.Header().Get(HTTPCacheHeader))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	bypass := serve(r, http.MethodGet, "/items?ts=1", nil)
	assert.Equal(t, 2, calls)
	assert.Contains(t, bypass.Body.String(), `"calls":2`)

	n, err := PurgeHTTPCache(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	serve(r, http.MethodGet, "/items", nil)
	assert.Equal(t, 3, calls)
}

func TestHTTPCacheSkipsErrors(t *testing.T) {
	store := NewMemoryStore()
	calls := 0
	r := gin.New()
	r.Use(HTTPCache(store, HTTPCacheOptions{}))
	r.GET("/broken", func(c *gin.Context) {
		calls++
		c.Status(http.StatusInternalServerError)
	})

	serve(r, http.MethodGet, "/broken", nil)
	serve(r, http.MethodGet, "/broken", nil)
	assert.Equal(t, 2, calls)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewMemoryStore(), RateLimitOptions{Max: 2, Window: time.Hour}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	rec := serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestIdempotence(t *testing.T) {
	store := NewMemoryStore()
	status := http.StatusCreated
	r := gin.New()
	r.POST("/things", Idempotence(store), func(c *gin.Context) { c.Status(status) })
	key := http.Header{IdempotencyHeader: {"abc"}}

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/things", key).Code)
	assert.Equal(t, http.StatusConflict, serve(r, http.MethodPost, "/things", key).Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/things", nil).Code)

	status = http.StatusBadRequest
	other := http.Header{IdempotencyHeader: {"def"}}
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/things", other).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/things", other).Code, "failed requests may be retried")
}

func TestMemoryStoreIncr(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		n, err := s.Incr(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	raw, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", string(raw))
}
