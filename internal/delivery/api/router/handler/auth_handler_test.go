package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"keyauth/internal/delivery/api/validator"
	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/errors"
	mockusecase "keyauth/internal/mocks/usecase"
	"keyauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validator.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func newTestAuthHandler(t *testing.T) (*AuthHandler, *mockusecase.MockAuthUsecase) {
	authUC := mockusecase.NewMockAuthUsecase(t)

	return NewAuthHandler(AuthHandlerParams{
		AuthUC: authUC,
		Logger: slog.New(slog.DiscardHandler),
	}), authUC
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		h, authUC := newTestAuthHandler(t)
		authUC.EXPECT().
			Register(mock.Anything, &usecase.RegisterInput{Username: "alice", Password: "hunter22"}).
			Return(&usecase.RegisterOutput{Username: "alice"}, nil)

		c, rec := newTestContext(http.MethodPost, "/register", `{"username":"alice","password":"hunter22"}`)
		require.NoError(t, h.Register(c))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, map[string]any{"message": "user registered", "username": "alice"}, decodeBody(t, rec))
	})

	t.Run("username taken", func(t *testing.T) {
		h, authUC := newTestAuthHandler(t)
		authUC.EXPECT().
			Register(mock.Anything, mock.Anything).
			Return(nil, errors.WithStack(domainerrors.ErrUsernameTaken))

		c, rec := newTestContext(http.MethodPost, "/register", `{"username":"alice","password":"hunter22"}`)
		require.NoError(t, h.Register(c))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, map[string]any{"message": "username already exists"}, decodeBody(t, rec))
	})

	t.Run("store fault goes to the central handler", func(t *testing.T) {
		h, authUC := newTestAuthHandler(t)
		fault := domainerrors.NewStoreFaultError("claim username", errors.New("connection refused"))
		authUC.EXPECT().
			Register(mock.Anything, mock.Anything).
			Return(nil, fault)

		c, rec := newTestContext(http.MethodPost, "/register", `{"username":"alice","password":"hunter22"}`)
		err := h.Register(c)

		require.Error(t, err)
		assert.True(t, domainerrors.IsStoreFault(err))
		assert.False(t, c.Response().Committed)
		assert.Zero(t, rec.Body.Len())
	})

	tests := []struct {
		name       string
		body       string
		violations []any
	}{
		{
			name: "short username",
			body: `{"username":"ab","password":"hunter22"}`,
			violations: []any{
				map[string]any{"field": "username", "rule": "min"},
			},
		},
		{
			name: "missing fields",
			body: `{}`,
			violations: []any{
				map[string]any{"field": "username", "rule": "required"},
				map[string]any{"field": "password", "rule": "required"},
			},
		},
		{
			name: "short password",
			body: `{"username":"alice","password":"short"}`,
			violations: []any{
				map[string]any{"field": "password", "rule": "min"},
			},
		},
		{
			name: "long password",
			body: `{"username":"alice","password":"` + strings.Repeat("p", 129) + `"}`,
			violations: []any{
				map[string]any{"field": "password", "rule": "max"},
			},
		},
		{
			name: "malformed json",
			body: `{"username":`,
			violations: []any{
				map[string]any{"field": "body", "rule": "json"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The mock fails the test if the usecase is reached.
			h, _ := newTestAuthHandler(t)

			c, rec := newTestContext(http.MethodPost, "/register", tt.body)
			require.NoError(t, h.Register(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "validation failed", body["message"])
			assert.Equal(t, tt.violations, body["errors"])
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h, authUC := newTestAuthHandler(t)
		authUC.EXPECT().
			Login(mock.Anything, &usecase.LoginInput{Username: "alice", Password: "hunter22"}).
			Return(&usecase.LoginOutput{Username: "alice"}, nil)

		c, rec := newTestContext(http.MethodPost, "/login", `{"username":"alice","password":"hunter22"}`)
		require.NoError(t, h.Login(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"message": "login successful", "username": "alice"}, decodeBody(t, rec))
	})

	t.Run("rejections look the same", func(t *testing.T) {
		h, authUC := newTestAuthHandler(t)
		authUC.EXPECT().
			Login(mock.Anything, &usecase.LoginInput{Username: "alice", Password: "wrong-password"}).
			Return(nil, domainerrors.ErrInvalidCredentials.WrapMessage("password mismatch"))
		authUC.EXPECT().
			Login(mock.Anything, &usecase.LoginInput{Username: "nobody", Password: "wrong-password"}).
			Return(nil, domainerrors.ErrInvalidCredentials.WrapMessage("login rejected"))

		c1, rec1 := newTestContext(http.MethodPost, "/login", `{"username":"alice","password":"wrong-password"}`)
		require.NoError(t, h.Login(c1))
		c2, rec2 := newTestContext(http.MethodPost, "/login", `{"username":"nobody","password":"wrong-password"}`)
		require.NoError(t, h.Login(c2))

		assert.Equal(t, http.StatusUnauthorized, rec1.Code)
		assert.Equal(t, rec1.Code, rec2.Code)
		assert.Equal(t, rec1.Body.String(), rec2.Body.String())
		assert.Equal(t, map[string]any{"message": "invalid credentials"}, decodeBody(t, rec1))
	})

	t.Run("missing password", func(t *testing.T) {
		h, _ := newTestAuthHandler(t)

		c, rec := newTestContext(http.MethodPost, "/login", `{"username":"alice"}`)
		require.NoError(t, h.Login(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []any{map[string]any{"field": "password", "rule": "required"}}, decodeBody(t, rec)["errors"])
	})
}

func TestBindError_PassesTransportErrorsThrough(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	c, rec := newTestContext(http.MethodPost, "/register", "")

	err := h.bindError(c, echo.ErrStatusRequestEntityTooLarge)

	assert.ErrorIs(t, err, echo.ErrStatusRequestEntityTooLarge)
	assert.Zero(t, rec.Body.Len())
}

func TestAuthHandler_MalformedBodyIsLoggedAtDebug(t *testing.T) {
	var logs bytes.Buffer
	h := NewAuthHandler(AuthHandlerParams{
		AuthUC: mockusecase.NewMockAuthUsecase(t),
		Logger: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})

	c, rec := newTestContext(http.MethodPost, "/login", `{"username":`)
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, logs.String(), "Malformed request body")
}
