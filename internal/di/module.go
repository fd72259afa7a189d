package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/autoorder/internal/adapter/storefront/shopify"
	"github.com/polkiloo/autoorder/internal/adapter/supplier"
	"github.com/polkiloo/autoorder/internal/adapter/supplier/aliexpress"
	"github.com/polkiloo/autoorder/internal/adapter/supplier/bigbuy"
	"github.com/polkiloo/autoorder/internal/adapter/supplier/cj"
	"github.com/polkiloo/autoorder/internal/app"
	"github.com/polkiloo/autoorder/internal/config"
	"github.com/polkiloo/autoorder/internal/logger"
	"github.com/polkiloo/autoorder/internal/pkg/auth"
	"github.com/polkiloo/autoorder/internal/pkg/vault"
	"github.com/polkiloo/autoorder/internal/server/http/handlers"
	"github.com/polkiloo/autoorder/internal/server/http/router"
	"github.com/polkiloo/autoorder/internal/storage/cache"
	"github.com/polkiloo/autoorder/internal/storage/postgres"
	"github.com/polkiloo/autoorder/internal/usecase"
)

// Module assembles the whole service graph; opts are appended last so tests can fx.Replace parts of it.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		vault.Module,
		postgres.Module,
		cache.Module,
		cj.Module,
		aliexpress.Module,
		bigbuy.Module,
		supplier.Module,
		shopify.Module,
		fx.Provide(func(client *shopify.Client) usecase.StorefrontPropagator { return client }),
		usecase.Module,
		fx.Provide(func(facade *app.FulfillmentFacade) handlers.FulfillmentFacade { return facade }),
		fx.Provide(func(storage *postgres.Storage) handlers.HealthChecker { return storage }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
