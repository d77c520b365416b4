package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testParams = Params{N: 1 << 10, R: 8, P: 1}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	require.Len(t, salt, SaltSize)

	k1, err := DeriveKey("secret", salt, testParams)
	require.NoError(t, err)
	k2, err := DeriveKey("secret", salt, testParams)
	require.NoError(t, err)
	require.Len(t, k1, KeySize)
	require.Equal(t, k1, k2)

	k3, err := DeriveKey("other", salt, testParams)
	require.NoError(t, err)
	require.NotEqual(t, k1, k3)
}

func TestParamsDefaults(t *testing.T) {
	require.Equal(t, DefaultParams, Params{}.withDefaults())
}
