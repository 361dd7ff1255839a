package response

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()

	return echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec), rec
}

func TestMessage(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Message(c, http.StatusCreated, "user registered", "alice"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"user registered","username":"alice"}`, rec.Body.String())
}

func TestError_HidesDetailsForServerAndAuthErrors(t *testing.T) {
	details := []domainerrors.FieldViolation{{Field: "username", Rule: "min"}}

	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError} {
		c, rec := newContext()
		require.NoError(t, Error(c, code, "nope", details))
		assert.JSONEq(t, `{"message":"nope"}`, rec.Body.String())
	}

	c, rec := newContext()
	require.NoError(t, Error(c, http.StatusBadRequest, "validation failed", details))
	assert.JSONEq(t, `{"message":"validation failed","errors":[{"field":"username","rule":"min"}]}`, rec.Body.String())
}

func TestValidationFailed(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, ValidationFailed(c, domainerrors.FieldViolation{Field: "body", Rule: "json"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"validation failed","errors":[{"field":"body","rule":"json"}]}`, rec.Body.String())
}

func TestHandleAppError(t *testing.T) {
	t.Run("client error is written", func(t *testing.T) {
		c, rec := newContext()

		err := HandleAppError(c, domainerrors.ErrUsernameTaken.WrapMessage("register"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"message":"username already exists"}`, rec.Body.String())
	})

	t.Run("store fault is returned", func(t *testing.T) {
		c, rec := newContext()
		fault := domainerrors.NewStoreFaultError("claim", io.EOF)

		err := HandleAppError(c, fault)
		assert.True(t, errors.Is(err, io.EOF))
		assert.False(t, c.Response().Committed)
		assert.Zero(t, rec.Body.Len())
	})

	t.Run("unknown error is returned", func(t *testing.T) {
		c, _ := newContext()

		err := HandleAppError(c, io.ErrClosedPipe)
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	})
}

func TestInternalServerError(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, InternalServerError(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"internal server error"}`, rec.Body.String())
}
