// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Length bounds, in characters, for a canonical username.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 64
)

// User is a registered account. Username is unique across all users and never changes after creation.
type User struct {
	ID           uuid.UUID // Opaque identifier assigned once at creation.
	Username     string    // Canonical (normalized) login name.
	PasswordHash string    // Self-describing digest produced by a PasswordHasher; never the plaintext.
	CreatedAt    time.Time // Timestamp of registration.
	UpdatedAt    time.Time // Timestamp of the last modification; equals CreatedAt until updates exist.
}

// NewUser assigns a fresh identifier and creation time to a user that is about to be persisted.
func NewUser(username, passwordHash string) *User {
	now := time.Now().UTC()

	return &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeUsername returns the canonical form of a username: surrounding whitespace trimmed and lower-cased.
// Uniqueness and lookups always operate on this form, so "Alice" and " alice" name the same account.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
