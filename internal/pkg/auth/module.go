package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/autoorder/internal/config"
)

// Module provides the password hasher and token strategy.
var Module = fx.Options(
	fx.Provide(newPasswordHasher),
	fx.Provide(newTokenStrategy),
)

func newPasswordHasher() PasswordHasher {
	return NewBcryptHasher(0)
}

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewSignedTokenStrategy(p.Config.JWTSecret, Options{TTL: p.Config.TokenTTL})
}
