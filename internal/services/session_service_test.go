package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-log-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_Window(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewSessionService(env.messages, 0)
	inbound := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	logAt(t, env, "+1", "user", "hi", inbound, false)
	// a later bot reply does not extend the window
	logAt(t, env, "+1", "bot", "hello", inbound.Add(20*time.Hour), false)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "just after", at: inbound.Add(time.Minute), want: true},
		{name: "23h59m", at: inbound.Add(23*time.Hour + 59*time.Minute), want: true},
		{name: "24h01m", at: inbound.Add(24*time.Hour + time.Minute), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.now = func() time.Time { return tt.at }
			active, err := svc.IsActive(ctx, "+1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, active)
		})
	}

	status, err := svc.GetStatus(ctx, "+1")
	require.NoError(t, err)
	require.NotNil(t, status.LastInboundAt)
	assert.True(t, inbound.Equal(*status.LastInboundAt))
}

func TestSessionService_NoInbound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewSessionService(env.messages, time.Hour)

	active, err := svc.IsActive(ctx, "+404")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = env.messageSvc.LogDashboardMessage(ctx, &models.DashboardMessageRequest{
		Phone: "+2", Message: "operator", Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)

	status, err := svc.GetStatus(ctx, "+2")
	require.NoError(t, err)
	assert.False(t, status.SessionActive)
	assert.Nil(t, status.LastInboundAt)

	_, err = svc.IsActive(ctx, "")
	assert.True(t, errors.Is(err, ErrPhoneRequired))
}

func TestSessionService_CustomWindow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewSessionService(env.messages, time.Hour)
	inbound := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	logAt(t, env, "+1", "user", "hi", inbound, false)

	svc.now = func() time.Time { return inbound.Add(61 * time.Minute) }
	active, err := svc.IsActive(ctx, "+1")
	require.NoError(t, err)
	assert.False(t, active)
}
