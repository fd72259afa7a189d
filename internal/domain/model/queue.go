package model

import (
	"time"

	"github.com/google/uuid"
)

// QueueStatus is the lifecycle stage of a queued auto-order.
type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueCompleted  QueueStatus = "completed"
	QueueFailed     QueueStatus = "failed"
	QueueRetry      QueueStatus = "retry"
	QueueCancelled  QueueStatus = "cancelled"
)

// Active reports whether the item still blocks another enqueue of the same order.
func (s QueueStatus) Active() bool {
	return s == QueuePending || s == QueueProcessing || s == QueueRetry
}

const (
	retryBaseDelay = time.Minute
	retryMaxDelay  = time.Hour
)

// RetryDelay doubles a one minute base per attempt up to one hour, then adds jitter.
func RetryDelay(attempt int, jitter time.Duration) time.Duration {
	delay := retryMaxDelay
	if attempt < 7 {
		delay = min(retryBaseDelay<<max(attempt, 0), retryMaxDelay)
	}
	return delay + jitter
}

// QueueItem is an order waiting for, or done with, background dispatch.
type QueueItem struct {
	ID          uuid.UUID         `json:"id"`
	OrderID     string            `json:"order_id"`
	UserID      int64             `json:"user_id"`
	Status      QueueStatus       `json:"status"`
	RetryCount  int               `json:"retry_count"`
	MaxRetries  int               `json:"max_retries"`
	Request     PlaceOrderRequest `json:"payload"`
	LastError   string            `json:"error_message,omitempty"`
	NextRetryAt *time.Time        `json:"next_retry_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// QueueStats counts items per status.
type QueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Retry      int `json:"retry"`
	Cancelled  int `json:"cancelled"`
}

// CountQueue tallies the statuses of items.
func CountQueue(items []QueueItem) QueueStats {
	var stats QueueStats
	for _, item := range items {
		switch item.Status {
		case QueuePending:
			stats.Pending++
		case QueueProcessing:
			stats.Processing++
		case QueueCompleted:
			stats.Completed++
		case QueueFailed:
			stats.Failed++
		case QueueRetry:
			stats.Retry++
		case QueueCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// QueueResult reports one processed queue item.
type QueueResult struct {
	ID        uuid.UUID   `json:"id"`
	OrderID   string      `json:"order_id"`
	Status    QueueStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
	WillRetry bool        `json:"will_retry"`
}

// QueueReport summarizes one pass over the due queue items.
type QueueReport struct {
	Processed int           `json:"processed"`
	Results   []QueueResult `json:"results"`
}

// QueueOverview lists queue items with the tally of their statuses.
type QueueOverview struct {
	Items []QueueItem `json:"items"`
	Stats QueueStats  `json:"stats"`
}
