package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	mgr, err := NewTokenManager("unit-test-secret", time.Hour)
	require.NoError(t, err)

	token, err := mgr.Issue(42)
	require.NoError(t, err)

	userID, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenRejections(t *testing.T) {
	mgr, err := NewTokenManager("unit-test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := mgr.Verify("not.a.token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenManager("different-secret", time.Hour)
		require.NoError(t, err)
		token, err := other.Issue(42)
		require.NoError(t, err)
		_, err = mgr.Verify(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := NewTokenManager("unit-test-secret", time.Hour)
		require.NoError(t, err)
		expired.ttl = -time.Minute
		token, err := expired.Issue(42)
		require.NoError(t, err)
		_, err = mgr.Verify(token)
		assert.Error(t, err)
	})
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("   ", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hashed)
	assert.True(t, CheckPassword("hunter2", hashed))
	assert.False(t, CheckPassword("hunter3", hashed))
}
