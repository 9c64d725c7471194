package jwt

import (
	"testing"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEToken_RoundTrip(t *testing.T) {
	svc, err := NewJWTService("secret", "1h", "5m")
	require.NoError(t, err)

	token, expiresIn, err := svc.GenerateSSEToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestValidateSSEToken_RejectsAccessToken(t *testing.T) {
	svc, err := NewJWTService("secret", "1h", "5m")
	require.NoError(t, err)

	access, _, err := svc.GenerateAccessToken("user-1", "u@example.com", directory.RoleHR)
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(access)
	assert.Error(t, err)
}

func TestNewJWTService_BadDuration(t *testing.T) {
	_, err := NewJWTService("secret", "soon", "5m")
	assert.Error(t, err)
}
