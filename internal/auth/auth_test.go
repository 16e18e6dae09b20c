package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartgate-service/internal/model"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)

	assert.True(t, VerifyPassword("correct-horse", hash))
	assert.False(t, VerifyPassword("wrong-horse", hash))
}

func TestValidPassword(t *testing.T) {
	assert.False(t, ValidPassword(""))
	assert.False(t, ValidPassword("1234567"))
	assert.True(t, ValidPassword("12345678"))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	token, err := issuer.Issue("USR-1", model.RoleStaff)
	require.NoError(t, err)

	claims, err := NewParser("test-secret").Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "USR-1", claims.UserID)
	assert.Equal(t, model.RoleStaff, claims.Role)
	assert.Equal(t, "USR-1", claims.Subject)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	token, err := issuer.Issue("USR-1", model.RoleStaff)
	require.NoError(t, err)

	_, err = NewParser("other-secret").Parse(token)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Hour)
	token, err := issuer.Issue("USR-1", model.RoleStaff)
	require.NoError(t, err)

	_, err = NewParser("test-secret").Parse(token)
	require.Error(t, err)
}
