package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const defaultSecret = "showcase-secret-change-me"

// Token scopes.
const (
	ScopeGate  = "gate"
	ScopeAdmin = "admin"
)

var ErrScope = errors.New("token scope mismatch")

// Claims is the JWT payload.
type Claims struct {
	UserID string `json:"uid,omitempty"`
	Email  string `json:"email,omitempty"`
	Scope  string `json:"scope"`
	jwtlib.RegisteredClaims
}

// Signer signs and verifies HS256 tokens with one shared secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer. An empty secret falls back to the built-in default.
func NewSigner(secret string) *Signer {
	if secret == "" {
		secret = defaultSecret
	}
	return &Signer{secret: []byte(secret), now: time.Now}
}

// UsesDefaultSecret reports whether the signer runs on the built-in secret.
func (s *Signer) UsesDefaultSecret() bool {
	return string(s.secret) == defaultSecret
}

// Sign creates a signed token for the given claims, stamping issue and expiry times.
func (s *Signer) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims.IssuedAt = jwtlib.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwtlib.NewNumericDate(now.Add(ttl))
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates a token string and returns the claims.
func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwtlib.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ParseScope parses a token and requires the given scope.
func (s *Signer) ParseScope(tokenStr, scope string) (*Claims, error) {
	claims, err := s.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Scope != scope {
		return nil, ErrScope
	}
	return claims, nil
}
