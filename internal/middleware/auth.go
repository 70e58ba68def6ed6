package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/pkg/jwt"
	"github.com/microsolutions/showcase/internal/pkg/response"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyEmail  = "user_email"

	// GateTokenHeader carries the token issued by the PIN gate.
	GateTokenHeader = "X-Gate-Token"
)

// Auth requires an admin token in the Authorization header (or ?token=).
func Auth(signer *jwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := signer.ParseScope(extractToken(c), jwt.ScopeAdmin)
		if err != nil || claims.UserID == "" {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid admin token is present, but never blocks.
func OptionalAuth(signer *jwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := signer.ParseScope(extractToken(c), jwt.ScopeAdmin); err == nil && claims.UserID != "" {
			c.Set(ContextKeyUserID, claims.UserID)
			c.Set(ContextKeyEmail, claims.Email)
		}
		c.Next()
	}
}

// RequireGate requires a PIN gate token in the X-Gate-Token header.
func RequireGate(signer *jwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := signer.ParseScope(NormalizeToken(c.GetHeader(GateTokenHeader)), jwt.ScopeGate); err != nil {
			response.ForbiddenMsg(c, "pin required")
			return
		}
		c.Next()
	}
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentEmail extracts the authenticated email from context.
func CurrentEmail(c *gin.Context) string {
	v, _ := c.Get(ContextKeyEmail)
	email, _ := v.(string)
	return email
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
