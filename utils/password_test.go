package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hashed)

	assert.True(t, CheckPassword(hashed, "s3cret-password"))
	assert.False(t, CheckPassword(hashed, "wrong-password"))
}

func TestCheckPasswordEmptyHash(t *testing.T) {
	// Social-only accounts store no hash; nothing should match it.
	assert.False(t, CheckPassword("", "anything"))
}
