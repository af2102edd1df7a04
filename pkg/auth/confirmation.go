package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// confirmationCodeBytes is the entropy of a confirmation code; codes are
// hex-encoded to twice this length.
const confirmationCodeBytes = 16

// GenerateConfirmationCode creates a fresh one-time confirmation code.
func GenerateConfirmationCode() (string, error) {
	b := make([]byte, confirmationCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate confirmation code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashConfirmationCode hashes a confirmation code for storage. Only the
// hash is persisted; re-registration overwrites it, which invalidates
// any previously issued code.
func HashConfirmationCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash confirmation code: %w", err)
	}
	return string(hash), nil
}

// CheckConfirmationCode verifies a submitted code against the stored hash.
func CheckConfirmationCode(hash, code string) bool {
	if hash == "" || code == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
