package validator

import (
	"testing"

	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password,omitempty" validate:"required,min=8"`
}

func TestValidate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&signup{Username: "alice", Password: "secret123"}))

	err := v.Validate(&signup{Username: "al", Password: ""})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))

	verr, ok := errors.AsType[*domainerrors.ValidationError](err)
	require.True(t, ok)
	assert.Equal(t, []domainerrors.FieldViolation{
		{Field: "username", Rule: "min"},
		{Field: "password", Rule: "required"},
	}, verr.Violations())
}

func TestValidate_NonStruct(t *testing.T) {
	err := New().Validate("not a struct")

	require.Error(t, err)
	assert.False(t, errors.Is(err, domainerrors.ErrValidationFailed))
}
