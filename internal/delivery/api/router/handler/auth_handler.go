package handler

import (
	"log/slog"
	"net/http"

	"keyauth/internal/delivery/api/response"
	deliverycontext "keyauth/internal/delivery/context"
	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/errors"
	"keyauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Logger *slog.Logger
}

// AuthHandler serves registration and login
type AuthHandler struct {
	authUC usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC: params.AuthUC,
		logger: params.Logger,
	}
}

// RegisterRequest represents the request body for registering an account
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest represents the request body for logging in.
// Only presence is checked so a rejection never hints at the registration rules.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register handles account creation
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return h.bindError(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	out, err := h.authUC.Register(c.Request().Context(), &usecase.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return response.HandleAppError(c, errors.WithStack(err))
	}

	return response.Message(c, http.StatusCreated, "user registered", out.Username)
}

// Login handles credential verification
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return h.bindError(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	out, err := h.authUC.Login(c.Request().Context(), &usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return response.HandleAppError(c, errors.WithStack(err))
	}

	return response.Message(c, http.StatusOK, "login successful", out.Username)
}

// bindError passes transport errors such as an oversized body through and reports
// anything else as a malformed body.
func (h *AuthHandler) bindError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code != http.StatusBadRequest {
		return err
	}

	ctx := c.Request().Context()
	deliverycontext.GetLoggerOrDefault(ctx, h.logger).Debug("Malformed request body",
		slog.String("path", c.Path()),
		slog.Any("error", err),
	)

	return response.ValidationFailed(c, domainerrors.FieldViolation{Field: "body", Rule: "json"})
}
