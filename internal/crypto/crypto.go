// Package crypto seals mirror credentials at rest with AES-256-GCM.
// Keys are derived from an installation identifier with SHA-256.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	apperrors "github.com/yctsai/readnest/internal/errors"
)

// Seal encrypts plaintext under a key of any length and returns the
// nonce-prefixed ciphertext base64-encoded for storage in a text
// column.
func Seal(plaintext, key []byte) (string, error) {
	if len(key) == 0 {
		return "", apperrors.New(apperrors.ErrCryptoFailed, "encryption key is empty")
	}
	derived := sha256.Sum256(key)

	block, err := aes.NewCipher(derived[:])
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCryptoFailed, "initializing cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCryptoFailed, "initializing GCM", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCryptoFailed, "generating nonce", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Tampered or truncated input fails
// authentication and returns CRYPTO_FAILED.
func Open(ciphertext string, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, apperrors.New(apperrors.ErrCryptoFailed, "encryption key is empty")
	}
	derived := sha256.Sum256(key)

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCryptoFailed, "decoding ciphertext", err)
	}

	block, err := aes.NewCipher(derived[:])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCryptoFailed, "initializing cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCryptoFailed, "initializing GCM", err)
	}

	if len(data) < gcm.NonceSize() {
		return nil, apperrors.New(apperrors.ErrCryptoFailed, "ciphertext shorter than nonce")
	}
	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCryptoFailed, "authenticating ciphertext", err)
	}
	return plaintext, nil
}

// SealString seals a string value under a string key.
func SealString(plaintext, key string) (string, error) {
	return Seal([]byte(plaintext), []byte(key))
}

// OpenString opens a sealed string value.
func OpenString(ciphertext, key string) (string, error) {
	plaintext, err := Open(ciphertext, []byte(key))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DeriveKey turns an installation identifier into a stable key. The
// namespace prefix keeps keys distinct from other uses of the same
// identifier.
func DeriveKey(installID string) []byte {
	hash := sha256.Sum256([]byte("readnest:" + installID))
	return hash[:]
}
