package supplier

import (
	"go.uber.org/fx"

	"github.com/polkiloo/autoorder/internal/config"
)

// Module builds the registry from every adapter provided into the "suppliers" group.
var Module = fx.Provide(newRegistry)

type registryParams struct {
	fx.In

	Config   *config.Config
	Adapters []Adapter `group:"suppliers"`
}

func newRegistry(p registryParams) *Registry {
	return NewRegistry(Limits{
		RPS:     p.Config.SupplierRPS,
		Burst:   p.Config.SupplierBurst,
		Timeout: p.Config.SupplierTimeout,
	}, p.Adapters...)
}
