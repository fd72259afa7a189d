package repository

import (
	"context"
	"time"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

// OrderRepository describes persistence of order fulfillment state.
type OrderRepository interface {
	Get(ctx context.Context, userID int64, orderID string) (*model.Order, error)
	// Owner returns the user an order belongs to, or ErrNotFound when the order is unknown.
	Owner(ctx context.Context, orderID string) (int64, error)
	// RecordDispatch merges the attempt into the order aggregate and writes supplier orders,
	// the fulfillment event and the activity entry atomically. It returns the merged state.
	RecordDispatch(ctx context.Context, record model.DispatchRecord) (model.DispatchState, error)
	// ApplyTracking stores tracking on the order when the supplier order belongs to it.
	// It reports false when the order already carried the same tracking number.
	ApplyTracking(ctx context.Context, target model.TrackingTarget, info model.TrackingInfo, event model.FulfillmentEvent) (bool, error)
	ListAwaitingTracking(ctx context.Context, userID int64) ([]model.TrackingTarget, error)
	// ClaimAwaitingTracking selects targets across users not checked within backoff and marks them as checked.
	ClaimAwaitingTracking(ctx context.Context, limit int, backoff time.Duration) ([]model.TrackingTarget, error)
	// FulfillmentScope returns the storefront order id and the lines placed with one supplier order.
	FulfillmentScope(ctx context.Context, userID int64, orderID, supplierOrderID string) (*model.FulfillmentScope, error)
}
