// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "keyauth/internal/errors"

// ErrPasswordTooLong reports a password the hashing algorithm cannot take in full.
var ErrPasswordTooLong = errors.New("password exceeds hasher input limit")

// PasswordHasher defines the interface for password hashing and verification.
// Digests are self-describing (algorithm, cost and salt are embedded), so Verify needs no extra state.
type PasswordHasher interface {
	// Hash generates a salted digest from a plaintext password.
	Hash(password string) (string, error)

	// ValidatePassword rejects passwords the algorithm would refuse or silently truncate.
	ValidatePassword(password string) error

	// Verify reports whether password matches digest.
	// A malformed or foreign digest is a mismatch, not an error.
	Verify(password, digest string) (bool, error)
}
