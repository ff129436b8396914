package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserDefaults(t *testing.T) {
	u, err := CreateUser("alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, ROLE_USER, u.Role)
	assert.Equal(t, SubscriptionFree, u.SubscriptionStatus)
	assert.Nil(t, u.EmailVerifiedAt)
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("al", "not-an-email", "secret123")
	require.Error(t, err)

	_, err = CreateUser("alice", "alice@example.com", "short")
	require.Error(t, err)
}

func TestActivationToken(t *testing.T) {
	u := &User{}
	require.NoError(t, u.GenerateActivationToken())
	require.NotEmpty(t, u.ActivationToken)
	require.NotNil(t, u.ActivationSentAt)

	assert.True(t, u.IsActivationTokenValid(u.ActivationToken))
	assert.False(t, u.IsActivationTokenValid("deadbeef"))

	expired := time.Now().Add(-25 * time.Hour)
	u.ActivationSentAt = &expired
	assert.False(t, u.IsActivationTokenValid(u.ActivationToken))
}

func TestHasRole(t *testing.T) {
	u := &User{Role: ROLE_EDITOR}
	assert.True(t, u.HasRole(ROLE_EDITOR, ROLE_ADMIN))
	assert.False(t, u.HasRole(ROLE_ADMIN))
}
