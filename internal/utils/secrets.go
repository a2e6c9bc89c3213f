package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// JWTSecretBytes is the entropy of a generated JWT_SECRET (256-bit)
const JWTSecretBytes = 32

// GenerateSecret returns n cryptographically random bytes, hex encoded
func GenerateSecret(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateJWTSecret returns a new signing secret for JWT_SECRET
func GenerateJWTSecret() (string, error) {
	secret, err := GenerateSecret(JWTSecretBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	return secret, nil
}
