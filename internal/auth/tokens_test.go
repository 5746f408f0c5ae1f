package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamkz/banking-app/internal/domain"
)

func testSecret() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestNewTokenManagerRejectsBadSecrets(t *testing.T) {
	_, err := NewTokenManager("not-base64!!!", time.Hour)
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	_, err = NewTokenManager(short, time.Hour)
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	manager, err := NewTokenManager(testSecret(), time.Hour)
	require.NoError(t, err)

	token, err := manager.Generate("alice@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	claims, err := manager.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestParseRejectsTamperedToken(t *testing.T) {
	manager, err := NewTokenManager(testSecret(), time.Hour)
	require.NoError(t, err)

	token, err := manager.Generate("alice@example.com", domain.RoleUser)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = manager.Parse(tampered)
	assert.Error(t, err)

	// A token signed with a different key fails as well.
	otherSecret := base64.StdEncoding.EncodeToString([]byte("fedcba9876543210fedcba9876543210"))
	other, err := NewTokenManager(otherSecret, time.Hour)
	require.NoError(t, err)
	foreign, err := other.Generate("alice@example.com", domain.RoleUser)
	require.NoError(t, err)
	_, err = manager.Parse(foreign)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	manager, err := NewTokenManager(testSecret(), -time.Minute)
	require.NoError(t, err)

	token, err := manager.Generate("alice@example.com", domain.RoleUser)
	require.NoError(t, err)

	_, err = manager.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	manager, err := NewTokenManager(testSecret(), time.Hour)
	require.NoError(t, err)

	for _, bad := range []string{"", "garbage", strings.Repeat("a.", 3)} {
		_, err := manager.Parse(bad)
		assert.Error(t, err)
	}
}
