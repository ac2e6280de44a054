package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomIntRangeStaysInBounds(t *testing.T) {
	for i := 0; i < 2000; i++ {
		n := RandomIntRange(100000, 999999)
		require.GreaterOrEqual(t, n, int64(100000))
		require.LessOrEqual(t, n, int64(999999))
	}
}

func TestRandomIntRangeSwapsReversedBounds(t *testing.T) {
	n := RandomIntRange(10, 1)
	assert.GreaterOrEqual(t, n, int64(1))
	assert.LessOrEqual(t, n, int64(10))
}

func TestRandomHexLength(t *testing.T) {
	a, err := RandomHex(16)
	require.NoError(t, err)
	b, err := RandomHex(16)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, IsHashed(hash))
	assert.False(t, IsHashed("s3cret-pass"))
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
