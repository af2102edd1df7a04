package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationCodeRoundTrip(t *testing.T) {
	code, err := GenerateConfirmationCode()
	require.NoError(t, err)
	require.Len(t, code, confirmationCodeBytes*2)

	hash, err := HashConfirmationCode(code)
	require.NoError(t, err)
	assert.NotEqual(t, code, hash)

	assert.True(t, CheckConfirmationCode(hash, code))
	assert.False(t, CheckConfirmationCode(hash, "wrong-code"))
}

func TestConfirmationCodesAreUnique(t *testing.T) {
	a, err := GenerateConfirmationCode()
	require.NoError(t, err)
	b, err := GenerateConfirmationCode()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCheckConfirmationCode_EmptyInputs(t *testing.T) {
	hash, err := HashConfirmationCode("some-code")
	require.NoError(t, err)

	assert.False(t, CheckConfirmationCode("", "some-code"))
	assert.False(t, CheckConfirmationCode(hash, ""))
}
