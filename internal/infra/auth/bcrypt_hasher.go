// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"golang.org/x/crypto/bcrypt"

	"keyauth/internal/domain/service"
	"keyauth/internal/errors"
)

// bcrypt reads at most this many bytes of a password.
const bcryptMaxPasswordBytes = 72

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher is the constructor for bcryptHasher.
// The cost is clamped to the range bcrypt accepts.
func NewBcryptHasher(cost int) service.PasswordHasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}

	return &bcryptHasher{cost: cost}
}

// ValidatePassword rejects passwords longer than 72 bytes. The limit is in bytes, not characters.
func (h *bcryptHasher) ValidatePassword(password string) error {
	if len(password) > bcryptMaxPasswordBytes {
		return errors.WithStack(service.ErrPasswordTooLong)
	}

	return nil
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errors.WithStack(service.ErrPasswordTooLong)
	}
	if err != nil {
		return "", errors.Wrap(err, "bcrypt hash")
	}

	return string(bytes), nil
}

// Verify compares a plaintext password with a bcrypt hash.
// Every comparison failure bcrypt reports is either a mismatch or a malformed digest.
func (h *bcryptHasher) Verify(password, digest string) (bool, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)); err != nil {
		return false, nil
	}

	return true, nil
}
