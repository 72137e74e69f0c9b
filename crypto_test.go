package agentauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHmacSHA256Hex_ProducesHex(t *testing.T) {
	result := HmacSHA256Hex("secret key", "test message")
	assert.Len(t, result, 64)
	for _, c := range result {
		assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
	}
}

func TestHmacSHA256Hex_Deterministic(t *testing.T) {
	assert.Equal(t, HmacSHA256Hex("secret", "deterministic test"), HmacSHA256Hex("secret", "deterministic test"))
}

func TestHmacSHA256Hex_DifferentKeys(t *testing.T) {
	assert.NotEqual(t, HmacSHA256Hex("key1", "same message"), HmacSHA256Hex("key2", "same message"))
}

func TestTimingSafeEqual_Same(t *testing.T) {
	assert.True(t, TimingSafeEqual("abc", "abc"))
}

func TestTimingSafeEqual_Different(t *testing.T) {
	assert.False(t, TimingSafeEqual("abc", "def"))
}

func TestTimingSafeEqual_DifferentLength(t *testing.T) {
	assert.False(t, TimingSafeEqual("abc", "abcd"))
}

func TestRandomBytes_Length(t *testing.T) {
	b, err := RandomBytes(16)
	require.NoError(t, err)
	assert.Len(t, b, 16)
}

func TestRandomBytes_Unique(t *testing.T) {
	a, err := RandomBytes(16)
	require.NoError(t, err)
	b, err := RandomBytes(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSHA256Hex(t *testing.T) {
	assert.Len(t, SHA256Hex("hello"), 64)
	assert.Equal(t, SHA256Hex("hello"), SHA256Hex("hello"))
}

func TestToHexFromHexRoundTrip(t *testing.T) {
	b := []byte{0xde, 0xad, 0xbe, 0xef}
	hex := ToHex(b)
	decoded, err := FromHex(hex)
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
}

func TestBase64EncodeDecodeRoundTrip(t *testing.T) {
	b := []byte("round trip me")
	encoded := Base64Encode(b)
	decoded, err := Base64Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
}

func TestGenerateID_HasPrefix(t *testing.T) {
	id, err := GenerateID()
	require.NoError(t, err)
	assert.Contains(t, id, "ch_")
}

func TestGenerateSessionToken_HasPrefix(t *testing.T) {
	token, err := GenerateSessionToken()
	require.NoError(t, err)
	assert.Contains(t, token, "st_")
}
