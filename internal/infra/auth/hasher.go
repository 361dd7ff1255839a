package auth

import (
	"keyauth/config"
	"keyauth/internal/domain/service"
	"keyauth/internal/errors"

	"go.uber.org/fx"
)

// HasherParams defines the parameters required to build the configured PasswordHasher
type HasherParams struct {
	fx.In

	Config *config.Config
}

// NewPasswordHasher picks the hashing algorithm named by auth.hasher.
func NewPasswordHasher(params HasherParams) (service.PasswordHasher, error) {
	cfg := params.Config.Auth
	if cfg == nil {
		return nil, errors.New("auth config is required")
	}

	switch cfg.Hasher {
	case "", config.HasherBcrypt:
		return NewBcryptHasher(cfg.BcryptCost), nil
	case config.HasherArgon2id:
		return NewArgon2Hasher(cfg.Argon2), nil
	default:
		return nil, errors.Errorf("unknown password hasher: %s", cfg.Hasher)
	}
}
