package cryptor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKeys() ([]byte, []byte) {
	return []byte("01234567890123456789012345678901"), []byte("abcdefghijabcdefghijabcdefghijab")
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	hashKey, blockKey := testKeys()
	c, err := New(hashKey, blockKey)
	require.NoError(t, err)

	ciphertext, err := c.Encrypt("super-secret-jwt")
	require.NoError(t, err)
	require.NotContains(t, ciphertext, "super-secret-jwt")

	plaintext, ok := c.Decrypt(ciphertext)
	require.True(t, ok)
	require.Equal(t, "super-secret-jwt", plaintext)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	hashKey, blockKey := testKeys()
	c, err := New(hashKey, blockKey)
	require.NoError(t, err)

	ciphertext, err := c.Encrypt("jwt-value")
	require.NoError(t, err)

	tampered := strings.Replace(ciphertext, ciphertext[len(ciphertext)-4:], "0000", 1)

	_, ok := c.Decrypt(tampered)
	require.False(t, ok)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	hashKey, blockKey := testKeys()
	c, err := New(hashKey, blockKey)
	require.NoError(t, err)

	_, ok := c.Decrypt("not-a-real-cookie-value")
	require.False(t, ok)
}

func TestNewRejectsShortKeys(t *testing.T) {
	_, err := New([]byte("short"), []byte("alsoshort"))
	require.Error(t, err)
}

func TestTwoCryptorsWithDifferentKeysCannotDecryptEachOther(t *testing.T) {
	hashKey1, blockKey1 := testKeys()
	c1, err := New(hashKey1, blockKey1)
	require.NoError(t, err)

	c2, err := New([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), []byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))
	require.NoError(t, err)

	ciphertext, err := c1.Encrypt("value")
	require.NoError(t, err)

	_, ok := c2.Decrypt(ciphertext)
	require.False(t, ok)
}
