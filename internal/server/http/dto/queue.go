package dto

import (
	"github.com/google/uuid"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

// Actions accepted by POST /auto-order-queue.
const (
	ActionEnqueue     = "enqueue"
	ActionQueueStatus = "get_status"
	ActionCancel      = "cancel"
	ActionRetryNow    = "retry_now"
)

// QueueRequest is the union payload of every queue action.
type QueueRequest struct {
	Action         string                `json:"action"`
	QueueID        string                `json:"queue_id"`
	OrderID        string                `json:"order_id"`
	StoreOrderID   string                `json:"store_order_id"`
	Items          []model.OrderItem     `json:"items"`
	Shipping       model.ShippingAddress `json:"shipping"`
	IdempotencyKey string                `json:"idempotency_key"`
}

type EnqueueResponse struct {
	Success bool      `json:"success"`
	QueueID uuid.UUID `json:"queue_id"`
	Message string    `json:"message"`
}

// QueueConflictResponse names the queue item that already holds the order.
type QueueConflictResponse struct {
	Success bool      `json:"success"`
	Error   string    `json:"error"`
	QueueID uuid.UUID `json:"queue_id"`
}

type QueueStatusResponse struct {
	Success bool              `json:"success"`
	Items   []model.QueueItem `json:"items"`
	Stats   model.QueueStats  `json:"stats"`
}

type CancelResponse struct {
	Success   bool             `json:"success"`
	Cancelled *model.QueueItem `json:"cancelled"`
}

type RetryNowResponse struct {
	Success bool             `json:"success"`
	Queued  *model.QueueItem `json:"queued"`
}
