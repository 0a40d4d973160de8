package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zettahub/pkg/auth"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hashed)

	assert.True(t, auth.CheckPasswordHash("hunter22", hashed))
	assert.False(t, auth.CheckPasswordHash("wrong", hashed))
}

func TestTokenRoundtrip(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour)

	token, err := tm.Generate("root")
	require.NoError(t, err)

	username, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "root", username)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := auth.NewTokenManager("secret-a", time.Hour)
	verifier := auth.NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Generate("root")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	tm := auth.NewTokenManager("secret", -time.Minute)

	token, err := tm.Generate("root")
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour)
	_, err := tm.Verify("definitely.not.a.token")
	assert.Error(t, err)
}
