package model

import (
	"time"

	"keyauth/internal/domain/entity"
	"keyauth/internal/errors"

	"github.com/google/uuid"
)

// Hash field names of a stored user record.
const (
	FieldID           = "id"
	FieldUsername     = "username"
	FieldPasswordHash = "passwordHash"
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"
)

// UserFields lists every field of a user record in storage order.
var UserFields = []string{FieldID, FieldUsername, FieldPasswordHash, FieldCreatedAt, FieldUpdatedAt}

// UserModel mirrors the 'user:<id>' hash. All values are stored as strings; timestamps are RFC 3339 in UTC.
type UserModel struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    string
	UpdatedAt    string
}

// FromEntity maps a domain user onto its storage representation.
func FromEntity(user *entity.User) *UserModel {
	return &UserModel{
		ID:           user.ID.String(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    user.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// FromFields rebuilds a model from the field map read back from the store.
func FromFields(fields map[string]string) *UserModel {
	return &UserModel{
		ID:           fields[FieldID],
		Username:     fields[FieldUsername],
		PasswordHash: fields[FieldPasswordHash],
		CreatedAt:    fields[FieldCreatedAt],
		UpdatedAt:    fields[FieldUpdatedAt],
	}
}

// Fields returns the record as a field map ready to be written.
func (m *UserModel) Fields() map[string]string {
	return map[string]string{
		FieldID:           m.ID,
		FieldUsername:     m.Username,
		FieldPasswordHash: m.PasswordHash,
		FieldCreatedAt:    m.CreatedAt,
		FieldUpdatedAt:    m.UpdatedAt,
	}
}

// ToEntity converts the stored record back into a domain user.
// A record missing its identity or digest is rejected rather than returned half-populated.
func (m *UserModel) ToEntity() (*entity.User, error) {
	if m.Username == "" || m.PasswordHash == "" {
		return nil, errors.Errorf("user record %q is incomplete", m.ID)
	}

	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "user record has invalid id %q", m.ID)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, m.CreatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "user record %s has invalid createdAt", m.ID)
	}

	updatedAt := createdAt
	if m.UpdatedAt != "" {
		if updatedAt, err = time.Parse(time.RFC3339Nano, m.UpdatedAt); err != nil {
			return nil, errors.Wrapf(err, "user record %s has invalid updatedAt", m.ID)
		}
	}

	return &entity.User{
		ID:           id,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
