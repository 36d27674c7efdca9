package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	saltLength   = 16
	keyLength    = 32
)

// NewPasswordSalt returns a fresh per-user salt, base64 encoded for storage.
func NewPasswordSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(salt), nil
}

// HashPassword derives an argon2id hash from the password and the stored
// per-user salt. Credential checks recompute it and compare against the
// stored value.
func HashPassword(password, salt string) (string, error) {
	rawSalt, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), rawSalt, argonTime, argonMemory, argonThreads, keyLength)
	return base64.RawStdEncoding.EncodeToString(key), nil
}

// VerifyPassword reports whether password+salt hash to expectedHash, in
// constant time.
func VerifyPassword(password, salt, expectedHash string) bool {
	computed, err := HashPassword(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(expectedHash)) == 1
}
