package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "taskboard-cache-key"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := `{"id":1,"completion_report":"Fixed the bug today"}`

	sealed, err := Encrypt(plain, testKey)
	require.NoError(t, err)
	assert.NotEqual(t, plain, sealed)

	got, err := Decrypt(sealed, testKey)
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	// Fresh nonce per call: the same payload never seals identically.
	again, err := Encrypt(plain, testKey)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)
}

func TestDecryptWrongKey(t *testing.T) {
	sealed, err := Encrypt("payload", testKey)
	require.NoError(t, err)

	_, err = Decrypt(sealed, "some-other-key")
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := Decrypt("not base64 at all!!!", testKey)
	assert.Error(t, err)

	_, err = Decrypt(base64.StdEncoding.EncodeToString([]byte("ab")), testKey)
	assert.Error(t, err, "shorter than a nonce")
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	sealed, err := Encrypt("payload", testKey)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01

	_, err = Decrypt(base64.StdEncoding.EncodeToString(raw), testKey)
	assert.Error(t, err)
}
