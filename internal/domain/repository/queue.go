package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

// QueueRepository persists orders waiting for background dispatch.
type QueueRepository interface {
	// Enqueue stores item with its activity entry. When the order already has an active item
	// that item is returned together with ErrAlreadyQueued.
	Enqueue(ctx context.Context, item model.QueueItem, activity model.ActivityLog) (*model.QueueItem, error)
	// ClaimDue marks up to limit due items as processing. Items processing for longer than lease are due again.
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]model.QueueItem, error)
	// Settle stores the outcome of a claimed item and, when given, a fulfillment event for its order.
	Settle(ctx context.Context, item model.QueueItem, event *model.FulfillmentEvent) error
	// List returns the newest items of the user, optionally narrowed to one order.
	List(ctx context.Context, userID int64, orderID string, limit int) ([]model.QueueItem, error)
	Cancel(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error)
	RetryNow(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error)
}
