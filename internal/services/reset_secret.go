package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const resetSecretBytes = 32

// newResetSecret returns a random hex secret for the email link and the hash
// that is stored in its place.
func newResetSecret() (secret, hash string, err error) {
	buf := make([]byte, resetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	secret = hex.EncodeToString(buf)
	return secret, HashResetSecret(secret), nil
}

// HashResetSecret is the one-way transform applied to reset secrets before storage.
func HashResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
