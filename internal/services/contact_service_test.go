package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.contactSvc.GetContact(ctx, "+1")
	assert.True(t, errors.Is(err, ErrContactNotFound))

	contact, err := env.contactSvc.UpsertContact(ctx, " +1 ", " Ana ", "first note")
	require.NoError(t, err)
	assert.Equal(t, "+1", contact.Phone)
	assert.Equal(t, "Ana", contact.DisplayName)
	assert.False(t, contact.CreatedAt.IsZero())

	updated, err := env.contactSvc.UpsertContact(ctx, "+1", "Ana Silva", "")
	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", updated.DisplayName)
	assert.Equal(t, "", updated.Notes, "upsert replaces notes")
	assert.True(t, updated.CreatedAt.Equal(contact.CreatedAt))

	stored, err := env.contactSvc.GetContact(ctx, "+1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", stored.DisplayName)

	_, err = env.contactSvc.UpsertContact(ctx, "", "x", "")
	assert.True(t, errors.Is(err, ErrPhoneRequired))
}
