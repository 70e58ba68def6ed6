package adminuser

import (
	"context"
	"testing"
	"time"

	"github.com/microsolutions/showcase/internal/database/dbtest"
	"github.com/microsolutions/showcase/internal/pkg/events"
	"github.com/microsolutions/showcase/internal/pkg/events/eventstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateHashesPassword(t *testing.T) {
	rec := &eventstest.Recorder{}
	svc := NewService(dbtest.Open(t), rec)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateDTO{Email: " Admin@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", u.Email)
	assert.Equal(t, "admin@example.com", u.Name)
	assert.NotContains(t, u.PasswordHash, "correct horse")
	assert.True(t, CheckPassword(u, "correct horse"))
	assert.False(t, CheckPassword(u, "wrong"))

	found, err := svc.FindByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, []string{events.AdminUsersUpdate}, rec.Names())
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(dbtest.Open(t), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDTO{Email: "not-an-email", Password: "long enough"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, CreateDTO{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateDTO{Email: "a@example.com", Password: "long enough"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateDTO{Email: "A@example.com", Password: "long enough"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateKeepsPasswordWhenBlank(t *testing.T) {
	svc := NewService(dbtest.Open(t), nil)
	ctx := context.Background()
	u, err := svc.Create(ctx, CreateDTO{Email: "a@example.com", Password: "first password"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, u.ID, UpdateDTO{Name: "Ada", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.Name)
	assert.True(t, CheckPassword(updated, "first password"))

	updated, err = svc.Update(ctx, u.ID, UpdateDTO{Name: "Ada", Email: "a@example.com", Password: "second password"})
	require.NoError(t, err)
	assert.True(t, CheckPassword(updated, "second password"))

	missing, err := svc.Update(ctx, "nope", UpdateDTO{Email: "b@example.com"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteAndTouchLogin(t *testing.T) {
	svc := NewService(dbtest.Open(t), nil)
	ctx := context.Background()
	u, err := svc.Create(ctx, CreateDTO{Email: "a@example.com", Password: "long enough"})
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.TouchLogin(ctx, u, at))
	got, err := svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(at))

	require.NoError(t, svc.Delete(ctx, u.ID))
	assert.ErrorIs(t, svc.Delete(ctx, u.ID), ErrNotFound)
}
