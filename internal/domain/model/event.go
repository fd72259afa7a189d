package model

import (
	"time"

	"github.com/google/uuid"
)

// Fulfillment event types.
const (
	EventAutoOrderPlaced     = "auto_order_placed"
	EventAutoOrderQueued     = "auto_order_queued"
	EventOrderRetryScheduled = "order_retry_scheduled"
	EventOrderFailed         = "order_failed"
	EventTrackingSynced      = "tracking_synced"
)

// FulfillmentEvent is an append-only audit record attached to an order.
type FulfillmentEvent struct {
	ID        uuid.UUID
	OrderID   string
	Type      string
	Data      any
	CreatedAt time.Time
}

// ActivityLog is a user-facing activity entry.
type ActivityLog struct {
	ID          uuid.UUID
	UserID      int64
	Action      string
	EntityType  string
	EntityID    string
	Description string
	Details     any
	CreatedAt   time.Time
}

// DispatchRecord bundles every write of a single dispatch.
type DispatchRecord struct {
	OrderID      string
	UserID       int64
	StoreOrderID string
	Outcome      DispatchOutcome

	// Items holds the lines each supplier group was placed with.
	Items    map[SupplierType][]OrderItem
	Event    FulfillmentEvent
	Activity ActivityLog
}
