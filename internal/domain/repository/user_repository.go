// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"keyauth/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrDuplicateUsername is returned by Create when the username is already claimed by another user.
var ErrDuplicateUsername = errors.New("username already claimed")

// UserRepository defines the standard operations for user persistence.
// Lookups that find nothing return (nil, nil); errors are reserved for store faults.
type UserRepository interface {
	// Create atomically claims the username and persists a new user.
	// Exactly one of any number of concurrent calls for the same username succeeds.
	Create(ctx context.Context, username, passwordHash string) (*entity.User, error)

	// FindByUsername resolves the username index and loads the user record.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// FindByID loads a user record directly by its identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// UsernameExists reports whether the username has been claimed.
	UsernameExists(ctx context.Context, username string) (bool, error)
}
