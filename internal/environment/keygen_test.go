package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRSAKeyGen(t *testing.T) {
	a, err := NewRSAKeyGen(1024)
	require.NoError(t, err)
	b, err := NewRSAKeyGen(1024)
	require.NoError(t, err)

	assert.Equal(t, 1024, a.SigningKey().N.BitLen())
	assert.Len(t, a.KeyID(), 11)
	assert.NotEqual(t, a.KeyID(), b.KeyID())
}

func TestNewRSAKeyGen_TooSmall(t *testing.T) {
	_, err := NewRSAKeyGen(256)
	assert.ErrorContains(t, err, "generate signing key")
}
