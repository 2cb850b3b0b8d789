package servicekey_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/quotekit/quotekit/internal/servicekey"
)

func TestGenerate(t *testing.T) {
	raw, hash, err := servicekey.Generate(bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, servicekey.Prefix))
	assert.Len(t, raw, len(servicekey.Prefix)+43)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)))

	other, _, err := servicekey.Generate(bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, raw, other)
}

func TestVerifier(t *testing.T) {
	raw, hash, err := servicekey.Generate(bcrypt.MinCost)
	require.NoError(t, err)

	v, err := servicekey.NewVerifier(hash)
	require.NoError(t, err)

	assert.NoError(t, v.Verify(raw))
	assert.ErrorIs(t, v.Verify(raw+"x"), servicekey.ErrInvalidKey)
	assert.ErrorIs(t, v.Verify(""), servicekey.ErrInvalidKey)
}

func TestNewVerifier_InvalidHash(t *testing.T) {
	v, err := servicekey.NewVerifier("not-a-bcrypt-hash")

	assert.Error(t, err)
	assert.Nil(t, v)
}
