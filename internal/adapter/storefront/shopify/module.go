package shopify

import (
	"log/slog"
	"net/http"

	"go.uber.org/fx"

	"github.com/polkiloo/autoorder/internal/config"
)

// Module provides the Shopify Admin client.
var Module = fx.Provide(NewFromConfig)

// NewFromConfig builds a client whose requests are bounded by the supplier timeout.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	return New(&http.Client{Timeout: cfg.SupplierTimeout}, cfg.ShopifyAPIVersion, logger)
}
