package security

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueMCPToken(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	token, expiresAt, err := IssueMCPToken("test-secret", userID, now, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour), expiresAt)

	claims, err := ParseMCPToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "mcp", claims.Type)
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
}

func TestIssueMCPTokenEmptySecret(t *testing.T) {
	_, _, err := IssueMCPToken("", uuid.New(), time.Now(), time.Hour)
	require.Error(t, err)
}

func TestParseMCPTokenWrongSecret(t *testing.T) {
	token, _, err := IssueMCPToken("right-secret", uuid.New(), time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = ParseMCPToken("wrong-secret", token)
	require.Error(t, err)
}

func TestParseMCPTokenExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	token, _, err := IssueMCPToken("test-secret", uuid.New(), issuedAt, time.Hour)
	require.NoError(t, err)

	_, err = ParseMCPToken("test-secret", token)
	require.Error(t, err)
}
