// Package crypto provides AES-GCM encryption for payloads persisted outside
// the primary store, such as cached task records carrying completion reports.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

const keySize = 32

// Encrypt seals data with key and returns it base64 encoded.
func Encrypt(data, key string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(data), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func Decrypt(data, key string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func newGCM(key string) (cipher.AEAD, error) {
	block, err := aes.NewCipher([]byte(padKey(key)))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// padKey pins the key to 32 bytes so any configured passphrase works.
func padKey(key string) string {
	if len(key) >= keySize {
		return key[:keySize]
	}
	padded := make([]byte, keySize)
	copy(padded, key)
	return string(padded)
}
