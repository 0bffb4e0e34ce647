package service

import (
	"context"
	"testing"
	"time"

	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/pkg/jwt"
	"stockpilot/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthSessions(t *testing.T) {
	s := newStack(t)
	users := repository.NewUserRepo(s.db)
	ctx := context.Background()

	user := &model.User{Email: "clerk@example.com", FullName: "Store Clerk", IsActive: true}
	require.NoError(t, user.SetPassword("s3cret"))
	require.NoError(t, users.Create(ctx, user))

	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := NewAuthService(users, jwt.NewManager("test-secret", time.Hour), s.events, clock, logger.Nop())

	_, err := svc.Login(ctx, "clerk@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	first, err := svc.Login(ctx, " Clerk@Example.com ", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, first.Token)

	v, err := svc.ValidateToken(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, "clerk@example.com", v.User.Email)

	// an idle session cannot be revived
	now = now.Add(SessionIdleTimeout + time.Second)
	_, err = svc.ValidateToken(ctx, first.Token)
	assert.ErrorIs(t, err, ErrSessionTimeout)

	second, err := svc.Login(ctx, "clerk@example.com", "s3cret")
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, first.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	now = now.Add(4 * time.Minute)
	require.NoError(t, svc.Heartbeat(ctx, model.Actor{ID: user.ID.String(), Name: user.FullName}))
	now = now.Add(4 * time.Minute)
	_, err = svc.ValidateToken(ctx, second.Token)
	assert.NoError(t, err, "heartbeat keeps the session alive")
	assert.Contains(t, s.events.types(), model.EventUserStatus)

	require.NoError(t, svc.ResetPassword(ctx, "clerk@example.com", "s3cret", "n3w-secret"))
	_, err = svc.ValidateToken(ctx, second.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
	_, err = svc.Login(ctx, "clerk@example.com", "n3w-secret")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(ctx, "clerk@example.com", "bad", "x"), ErrWrongPassword)
	assert.ErrorIs(t, svc.Heartbeat(ctx, model.Actor{ID: "system"}), ErrUserNotFound)
}
