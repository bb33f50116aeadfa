package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTimestampWithPrefix(t *testing.T) {
	t.Run("carries the prefix and three segments", func(t *testing.T) {
		id := GenerateTimestampWithPrefix("RSV")

		parts := strings.Split(id, "-")
		require.Len(t, parts, 3)
		assert.Equal(t, "RSV", parts[0])
		assert.NotEmpty(t, parts[1])
		assert.NotEmpty(t, parts[2])
	})

	t.Run("generates distinct identifiers", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 100; i++ {
			id := GenerateTimestampWithPrefix("EVT")
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %s", id)
			seen[id] = struct{}{}
		}
	})
}
