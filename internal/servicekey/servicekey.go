// Package servicekey issues and verifies the shared key that internal callers
// present on the founding-member routes.
package servicekey

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Prefix is prepended to every generated key so leaked keys are recognizable.
const Prefix = "qk_"

// ErrInvalidKey is returned when a presented key does not match the configured hash.
var ErrInvalidKey = errors.New("invalid service key")

// Generate creates a new key and its bcrypt hash. The raw key is
// 32 random bytes -> base64url -> prepend "qk_".
func Generate(cost int) (rawKey, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = Prefix + base64.RawURLEncoding.EncodeToString(b)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), cost)
	if err != nil {
		return "", "", fmt.Errorf("hashing key: %w", err)
	}
	return rawKey, string(hashBytes), nil
}

// Verifier checks presented keys against a single bcrypt hash.
type Verifier struct {
	hash []byte
}

// NewVerifier returns a Verifier for hash. The hash is checked for a valid
// bcrypt cost so a misconfigured value fails at startup.
func NewVerifier(hash string) (*Verifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parsing service key hash: %w", err)
	}
	return &Verifier{hash: []byte(hash)}, nil
}

// Verify returns ErrInvalidKey unless rawKey matches the configured hash.
func (v *Verifier) Verify(rawKey string) error {
	if rawKey == "" {
		return ErrInvalidKey
	}
	if bcrypt.CompareHashAndPassword(v.hash, []byte(rawKey)) != nil {
		return ErrInvalidKey
	}
	return nil
}
