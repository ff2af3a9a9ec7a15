package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevTokens(t *testing.T) {
	v := NewVerifier("", "")
	p, err := v.Verify("acme:Admin")
	require.NoError(t, err)
	assert.Equal(t, Principal{Tenant: "acme", Role: "admin"}, p)
	assert.True(t, p.IsAdmin())

	_, err = v.Verify("acme")
	assert.Error(t, err)
	_, err = v.Verify(":admin")
	assert.Error(t, err)
}

func TestHMACTokens(t *testing.T) {
	secret := []byte("s3cret")
	v := NewVerifier("HMAC", string(secret))

	tok, err := SignHS256(secret, map[string]any{"tenant": "acme", "role": "ADMIN"})
	require.NoError(t, err)
	p, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "acme", p.Tenant)
	assert.True(t, p.IsAdmin())

	tok, err = SignHS256(secret, map[string]any{"tenant": "acme"})
	require.NoError(t, err)
	p, err = v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user", p.Role)

	forged, err := SignHS256([]byte("other"), map[string]any{"tenant": "acme", "role": "admin"})
	require.NoError(t, err)
	_, err = v.Verify(forged)
	assert.ErrorIs(t, err, ErrBadSignature)

	noTenant, err := SignHS256(secret, map[string]any{"role": "admin"})
	require.NoError(t, err)
	_, err = v.Verify(noTenant)
	assert.ErrorContains(t, err, "tenant")

	_, err = v.Verify("a.b")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = v.Verify(strings.Repeat("!", 3) + ".x.y")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnsupportedMode(t *testing.T) {
	_, err := NewVerifier("jwks", "").Verify("a.b.c")
	assert.Error(t, err)
}
