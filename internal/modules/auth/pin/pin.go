// Package pin implements the PIN gate shown before the admin sign-in form.
package pin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/microsolutions/showcase/internal/pkg/jwt"
	"github.com/microsolutions/showcase/internal/pkg/metrics"
	"go.uber.org/zap"
)

const (
	MaxAttempts  = 3
	GateTokenTTL = 15 * time.Minute
	// failureTTL bounds how long failures below the limit are remembered.
	failureTTL = time.Hour
)

var (
	ErrWrongPIN = errors.New("wrong pin")
	ErrLocked   = errors.New("too many wrong attempts")
)

// WrongPINError reports how many attempts remain before the lock.
type WrongPINError struct{ Remaining int }

func (e *WrongPINError) Error() string {
	return fmt.Sprintf("wrong pin, %d attempts left", e.Remaining)
}

func (e *WrongPINError) Unwrap() error { return ErrWrongPIN }

// LockedError reports when the client may try again.
type LockedError struct{ RetryAfter time.Duration }

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many wrong attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *LockedError) Unwrap() error { return ErrLocked }

// Gate checks the PIN. After MaxAttempts consecutive failures a client is locked
// for the cool-down; once it passes the failure count starts over.
type Gate struct {
	pin      string
	cooldown time.Duration
	store    Store
	signer   *jwt.Signer
	logger   *zap.Logger
	now      func() time.Time
	mu       sync.Mutex
}

func NewGate(pin string, cooldown time.Duration, store Store, signer *jwt.Signer, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		pin:      pin,
		cooldown: cooldown,
		store:    store,
		signer:   signer,
		logger:   logger.Named("pin"),
		now:      time.Now,
	}
}

// Verify checks pin for client and returns a gate token on success.
func (g *Gate) Verify(ctx context.Context, client, pin string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	st, err := g.store.Get(ctx, client)
	if err != nil {
		return "", fmt.Errorf("load pin state: %w", err)
	}
	if !st.LockedUntil.IsZero() {
		if now.Before(st.LockedUntil) {
			metrics.ObservePIN(metrics.PINLocked)
			return "", &LockedError{RetryAfter: st.LockedUntil.Sub(now)}
		}
		st = State{}
	}

	if subtle.ConstantTimeCompare([]byte(pin), []byte(g.pin)) == 1 {
		if err := g.store.Delete(ctx, client); err != nil {
			g.logger.Warn("reset pin state failed", zap.String("client", client), zap.Error(err))
		}
		token, err := g.signer.Sign(jwt.Claims{Scope: jwt.ScopeGate}, GateTokenTTL)
		if err != nil {
			return "", err
		}
		metrics.ObservePIN(metrics.PINAccepted)
		return token, nil
	}

	st.Failures++
	ttl := failureTTL
	if st.Failures >= MaxAttempts {
		st.LockedUntil = now.Add(g.cooldown)
		ttl = g.cooldown + time.Minute
	}
	if err := g.store.Put(ctx, client, st, ttl); err != nil {
		return "", fmt.Errorf("save pin state: %w", err)
	}

	if !st.LockedUntil.IsZero() {
		g.logger.Warn("pin gate locked", zap.String("client", client), zap.Duration("cooldown", g.cooldown))
		metrics.ObservePIN(metrics.PINLocked)
		return "", &LockedError{RetryAfter: g.cooldown}
	}
	metrics.ObservePIN(metrics.PINRejected)
	return "", &WrongPINError{Remaining: MaxAttempts - st.Failures}
}
