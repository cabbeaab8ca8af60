package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	t.Run("valid lowercase", func(t *testing.T) {
		a, err := ParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		require.NoError(t, err)
		assert.Equal(t, Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), a)
		assert.False(t, a.IsZero())
	})

	t.Run("mixed case canonicalizes to lowercase", func(t *testing.T) {
		a, err := ParseAddress("0xAbCdEf0123456789aBcDeF0123456789ABCDEF01")
		require.NoError(t, err)
		assert.Equal(t, Address("0xabcdef0123456789abcdef0123456789abcdef01"), a)
	})

	t.Run("uppercase prefix accepted", func(t *testing.T) {
		a, err := ParseAddress("0Xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		require.NoError(t, err)
		assert.Equal(t, Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), a)
	})

	t.Run("rejections", func(t *testing.T) {
		for _, bad := range []string{
			"",
			"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"0x",
			"0xaaaa",
			"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"0xgggggggggggggggggggggggggggggggggggggggg",
		} {
			_, err := ParseAddress(bad)
			assert.Error(t, err, "expected %q to be rejected", bad)
		}
	})
}

func TestZeroAddress(t *testing.T) {
	assert.True(t, ZeroAddress.IsZero())
	assert.Empty(t, ZeroAddress.String())
}

func TestRequestID(t *testing.T) {
	id := NewRequestID()
	assert.False(t, id.IsNil())
	assert.NotEqual(t, id, NewRequestID())
	assert.True(t, RequestID("").IsNil())
}
