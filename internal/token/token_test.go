package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
)

var testUser = models.User{ID: 7, Username: "jdoe", Role: models.RoleAdmin}

func TestIssueAndValidatePair(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	access, refresh, err := m.IssuePair(testUser)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := m.ValidateAccess(access)
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, claims.UserID)
	assert.Equal(t, testUser.Username, claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	claims, err = m.ValidateRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, claims.UserID)
}

func TestTokenTypeMismatch(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)
	access, refresh, err := m.IssuePair(testUser)
	require.NoError(t, err)

	_, err = m.ValidateAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token must not pass as access")
	_, err = m.ValidateRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, 24*time.Hour)
	access, _, err := m.IssuePair(testUser)
	require.NoError(t, err)

	_, err = m.ValidateAccess(access)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestWrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour, 24*time.Hour)
	verifier := NewManager("secret-b", time.Hour, 24*time.Hour)

	access, _, err := issuer.IssuePair(testUser)
	require.NoError(t, err)

	_, err = verifier.ValidateAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)
	_, err := m.ValidateAccess("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
