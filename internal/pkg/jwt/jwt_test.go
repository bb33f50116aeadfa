package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONWebToken(t *testing.T) {
	t.Run("signs and parses claims back", func(t *testing.T) {
		j := NewJSONWebToken("test-secret")

		token, err := j.Sign("USR-1", "customer", time.Hour)
		require.NoError(t, err)

		claims, err := j.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "USR-1", claims.Subject)
		assert.Equal(t, "customer", claims.Role)
	})

	t.Run("rejects a token signed with a different secret", func(t *testing.T) {
		token, err := NewJSONWebToken("secret-a").Sign("USR-1", "customer", time.Hour)
		require.NoError(t, err)

		_, err = NewJSONWebToken("secret-b").Parse(token)
		require.Error(t, err)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		j := NewJSONWebToken("test-secret")

		token, err := j.Sign("USR-1", "customer", -time.Minute)
		require.NoError(t, err)

		_, err = j.Parse(token)
		require.Error(t, err)
	})
}
