package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerifyToken(t *testing.T) {
	t.Parallel()

	tok, err := NewVerifyToken(32)
	require.NoError(t, err)
	assert.Len(t, tok, 64)

	_, err = hex.DecodeString(tok)
	require.NoError(t, err)
}

func TestNewVerifyToken_DefaultSize(t *testing.T) {
	t.Parallel()

	tok, err := NewVerifyToken(0)
	require.NoError(t, err)
	assert.Len(t, tok, 64)
}

func TestNewVerifyToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewVerifyToken(32)
		require.NoError(t, err)
		require.False(t, seen[tok], "token repeated: %s", tok)
		seen[tok] = true
	}
}
