// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"sync"
	"unicode/utf8"

	deliverycontext "keyauth/internal/delivery/context"
	"keyauth/internal/domain/entity"
	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/domain/repository"
	"keyauth/internal/domain/service"
	"keyauth/internal/errors"
	"keyauth/internal/usecase"

	"go.uber.org/fx"
)

// Hashed once and verified against when a login names an unknown user.
const timingEqualizerPassword = "keyauth-timing-equalizer"

// authService implements the AuthUsecase interface.
type authService struct {
	userRepo repository.UserRepository
	hasher   service.PasswordHasher
	metrics  service.AuthMetrics
	logger   *slog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	UserRepo repository.UserRepository
	Hasher   service.PasswordHasher
	Metrics  service.AuthMetrics
	Logger   *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		userRepo: params.UserRepo,
		hasher:   params.Hasher,
		metrics:  params.Metrics,
		logger:   params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates an account for a username nobody holds yet.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	username := entity.NormalizeUsername(input.Username)
	if violation, ok := checkUsername(username); !ok {
		srv.record(service.AuthEventRegister, service.AuthOutcomeRejected)

		return nil, errors.WithStack(domainerrors.NewValidationError(violation))
	}

	if err := srv.hasher.ValidatePassword(input.Password); err != nil {
		return nil, srv.passwordRejected(ctx, username, err)
	}

	srv.log(ctx).Info("Starting registration", slog.String("username", username))

	taken, err := srv.userRepo.UsernameExists(ctx, username)
	if err != nil {
		return nil, srv.registerFailed(ctx, username, errors.Wrap(err, "failed to check username availability"))
	}
	if taken {
		return nil, srv.usernameTaken(ctx, username)
	}

	digest, err := srv.hasher.Hash(input.Password)
	if errors.Is(err, service.ErrPasswordTooLong) {
		return nil, srv.passwordRejected(ctx, username, err)
	}
	if err != nil {
		return nil, srv.registerFailed(ctx, username, errors.Wrap(err, "failed to hash password during registration"))
	}

	user, err := srv.userRepo.Create(ctx, username, digest)
	if errors.Is(err, repository.ErrDuplicateUsername) {
		return nil, srv.usernameTaken(ctx, username)
	}
	if err != nil {
		return nil, srv.registerFailed(ctx, username, errors.Wrap(err, "failed to create user during registration"))
	}

	srv.record(service.AuthEventRegister, service.AuthOutcomeSuccess)
	srv.log(ctx).Info("User registered", slog.String("username", user.Username), slog.String("userID", user.ID.String()))

	return &usecase.RegisterOutput{Username: user.Username}, nil
}

// Login checks a username and password. An unknown username and a wrong password
// produce the same error, and both paths run one hash verification.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	username := entity.NormalizeUsername(input.Username)

	var user *entity.User
	if username != "" {
		var err error
		if user, err = srv.userRepo.FindByUsername(ctx, username); err != nil {
			return nil, srv.loginFailed(ctx, username, errors.Wrap(err, "failed to find user during login"))
		}
	}

	if user == nil {
		srv.equalizeTiming(input.Password)

		return nil, srv.loginRejected(ctx, username)
	}

	ok, err := srv.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, srv.loginFailed(ctx, username, errors.Wrap(err, "failed to verify password during login"))
	}
	if !ok {
		return nil, srv.loginRejected(ctx, username)
	}

	srv.record(service.AuthEventLogin, service.AuthOutcomeSuccess)
	srv.log(ctx).Info("User logged in", slog.String("username", user.Username))

	return &usecase.LoginOutput{Username: user.Username}, nil
}

func checkUsername(username string) (domainerrors.FieldViolation, bool) {
	switch n := utf8.RuneCountInString(username); {
	case n == 0:
		return domainerrors.FieldViolation{Field: "username", Rule: "required"}, false
	case n < entity.UsernameMinLength:
		return domainerrors.FieldViolation{Field: "username", Rule: "min"}, false
	case n > entity.UsernameMaxLength:
		return domainerrors.FieldViolation{Field: "username", Rule: "max"}, false
	}

	return domainerrors.FieldViolation{}, true
}

func (srv *authService) equalizeTiming(password string) {
	srv.dummyOnce.Do(func() {
		if digest, err := srv.hasher.Hash(timingEqualizerPassword); err == nil {
			srv.dummyDigest = digest
		}
	})

	if srv.dummyDigest != "" {
		_, _ = srv.hasher.Verify(password, srv.dummyDigest)
	}
}

func (srv *authService) usernameTaken(ctx context.Context, username string) error {
	srv.record(service.AuthEventRegister, service.AuthOutcomeConflict)
	srv.log(ctx).Warn("Username already registered", slog.String("username", username))

	return domainerrors.ErrUsernameTaken.WrapMessage("username already registered")
}

// passwordRejected reports a password the hasher cannot take as a client error.
// Anything other than ErrPasswordTooLong is a server fault.
func (srv *authService) passwordRejected(ctx context.Context, username string, err error) error {
	if !errors.Is(err, service.ErrPasswordTooLong) {
		return srv.registerFailed(ctx, username, errors.Wrap(err, "failed to validate password during registration"))
	}

	srv.record(service.AuthEventRegister, service.AuthOutcomeRejected)
	srv.log(ctx).Warn("Password rejected during registration", slog.String("username", username), slog.Any("error", err))

	return errors.WithStack(domainerrors.NewValidationError(domainerrors.FieldViolation{Field: "password", Rule: "max"}))
}

func (srv *authService) registerFailed(ctx context.Context, username string, err error) error {
	srv.record(service.AuthEventRegister, service.AuthOutcomeError)
	srv.log(ctx).Error("Registration failed", slog.String("username", username), slog.Any("error", err))

	return err
}

func (srv *authService) loginRejected(ctx context.Context, username string) error {
	srv.record(service.AuthEventLogin, service.AuthOutcomeRejected)
	srv.log(ctx).Warn("Login rejected", slog.String("username", username))

	return domainerrors.ErrInvalidCredentials.WrapMessage("login rejected")
}

func (srv *authService) loginFailed(ctx context.Context, username string, err error) error {
	srv.record(service.AuthEventLogin, service.AuthOutcomeError)
	srv.log(ctx).Error("Login failed", slog.String("username", username), slog.Any("error", err))

	return err
}

func (srv *authService) record(event, outcome string) {
	if srv.metrics != nil {
		srv.metrics.RecordAuthAttempt(event, outcome)
	}
}
