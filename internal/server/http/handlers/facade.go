package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (int64, error)
	TokenTTL() time.Duration
}

// OrderFacade places orders and reads their state.
type OrderFacade interface {
	PlaceOrder(ctx context.Context, userID int64, req model.PlaceOrderRequest) (*model.DispatchOutcome, error)
	Order(ctx context.Context, userID int64, orderID string) (*model.Order, error)
}

// QueueFacade defers orders to the background auto-order queue.
type QueueFacade interface {
	EnqueueOrder(ctx context.Context, userID int64, req model.PlaceOrderRequest) (*model.QueueItem, error)
	QueueStatus(ctx context.Context, userID int64, orderID string) (*model.QueueOverview, error)
	CancelQueued(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error)
	RetryQueued(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error)
}

// TrackingFacade syncs and queries supplier tracking.
type TrackingFacade interface {
	SyncOrderTracking(ctx context.Context, userID int64, target model.TrackingTarget) (*model.TrackingSyncResult, error)
	BatchSyncTracking(ctx context.Context, userID int64) (*model.BatchSyncReport, error)
	SupplierStatus(ctx context.Context, userID int64, supplier model.SupplierType, supplierOrderID string) (*model.TrackingInfo, error)
}

// SettingsFacade manages supplier credentials and storefront integrations.
type SettingsFacade interface {
	ConnectSupplier(ctx context.Context, userID int64, supplier model.SupplierType, in model.CredentialInput) error
	DisconnectSupplier(ctx context.Context, userID int64, supplier model.SupplierType) error
	ConnectShopify(ctx context.Context, userID int64, shopDomain, accessToken string) (*model.StoreIntegration, error)
}

// HealthChecker reports whether the service can reach its database.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// FulfillmentFacade aggregates the full set of operations used across handlers.
type FulfillmentFacade interface {
	AuthFacade
	OrderFacade
	QueueFacade
	TrackingFacade
	SettingsFacade
}
