package login

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/database/dbtest"
	"github.com/microsolutions/showcase/internal/middleware"
	"github.com/microsolutions/showcase/internal/modules/adminuser"
	"github.com/microsolutions/showcase/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *adminuser.Service, *jwt.Signer) {
	t.Helper()
	users := adminuser.NewService(dbtest.Open(t), nil)
	ctx := context.Background()
	_, err := users.Create(ctx, adminuser.CreateDTO{Email: "owner@example.com", Password: "owner password"})
	require.NoError(t, err)
	_, err = users.Create(ctx, adminuser.CreateDTO{Email: "editor@example.com", Password: "editor password"})
	require.NoError(t, err)
	signer := jwt.NewSigner("secret")
	return NewService(users, signer, "Owner@Example.com", nil), users, signer
}

func TestLoginIssuesAdminToken(t *testing.T) {
	svc, users, signer := newService(t)
	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	token, u, err := svc.Login(context.Background(), " OWNER@example.com", "owner password")
	require.NoError(t, err)
	claims, err := signer.ParseScope(token, jwt.ScopeAdmin)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	stored, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, stored.LastLoginAt.Equal(at))
}

func TestLoginRejections(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "owner@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "editor@example.com", "editor password")
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestLoginRouteRequiresGateToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, signer := newService(t)
	r := gin.New()
	NewHandler(svc, signer).RegisterRoutes(r.Group("/api"), middleware.Auth(signer))

	post := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"owner@example.com","password":"owner password"}`))
		req.Header.Set("Content-Type", "application/json")
		if header != "" {
			req.Header.Set(middleware.GateTokenHeader, header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusForbidden, post("").Code)

	gate, err := signer.Sign(jwt.Claims{Scope: jwt.ScopeGate}, time.Minute)
	require.NoError(t, err)
	rec := post(gate)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"token"`)
}
