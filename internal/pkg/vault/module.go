package vault

import (
	"go.uber.org/fx"

	"github.com/polkiloo/autoorder/internal/config"
)

// Module provides the credential cipher.
var Module = fx.Provide(func(cfg *config.Config) (*Cipher, error) {
	return NewCipher(cfg.VaultKey)
})
