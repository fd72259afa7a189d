package cj

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/autoorder/internal/adapter/supplier"
	"github.com/polkiloo/autoorder/internal/config"
)

// Module contributes the CJ adapter to the supplier registry.
var Module = fx.Provide(
	fx.Annotate(newAdapter, fx.ResultTags(`group:"suppliers"`)),
)

type adapterParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newAdapter(p adapterParams) (supplier.Adapter, error) {
	return New(p.Config.CJBaseURL, nil, p.Logger)
}
