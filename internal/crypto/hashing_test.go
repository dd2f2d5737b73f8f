package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelPasswordRoundTrip(t *testing.T) {
	hashed, err := HashChannelPassword("rice123")
	require.NoError(t, err)
	assert.NotEqual(t, "rice123", hashed)

	ok, err := CheckChannelPassword(hashed, "rice123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckChannelPassword(hashed, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptyPasswordIsUnprotected(t *testing.T) {
	hashed, err := HashChannelPassword("")
	require.NoError(t, err)
	assert.Empty(t, hashed)

	ok, err := CheckChannelPassword("", "anything")
	require.NoError(t, err)
	assert.True(t, ok)
}
