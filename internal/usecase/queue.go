package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/autoorder/internal/config"
	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
)

const (
	queueListLimit = 50
	maxRetryJitter = 10 * time.Second
)

type orderPlacer interface {
	PlaceOrder(ctx context.Context, userID int64, req model.PlaceOrderRequest) (*model.DispatchOutcome, error)
}

// QueueUseCase defers dispatch to background passes with exponential backoff between attempts.
type QueueUseCase struct {
	queue      repository.QueueRepository
	orders     repository.OrderRepository
	placer     orderPlacer
	batch      int
	maxRetries int
	lease      time.Duration
	logger     *slog.Logger
	now        func() time.Time
	jitter     func() time.Duration
}

// NewQueueUseCase constructs QueueUseCase.
func NewQueueUseCase(
	queue repository.QueueRepository,
	orders repository.OrderRepository,
	dispatch *DispatchUseCase,
	cfg *config.Config,
	logger *slog.Logger,
) *QueueUseCase {
	return &QueueUseCase{
		queue:      queue,
		orders:     orders,
		placer:     dispatch,
		batch:      cfg.QueueBatchSize,
		maxRetries: cfg.QueueMaxRetries,
		lease:      cfg.QueueLease,
		logger:     logger,
		now:        time.Now,
		jitter:     func() time.Duration { return rand.N(maxRetryJitter) },
	}
}

// QueueKey is the idempotency key of queued attempts that carry none of their own.
func QueueKey(id uuid.UUID) string {
	return "queue-" + id.String()
}

// Enqueue validates req and stores it for background dispatch. An order already waiting in the
// queue is returned together with ErrAlreadyQueued.
func (u *QueueUseCase) Enqueue(ctx context.Context, userID int64, req model.PlaceOrderRequest) (*model.QueueItem, error) {
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.Shipping = NormalizeShipping(req.Shipping)
	if err := ValidatePlaceOrder(req); err != nil {
		return nil, err
	}

	owner, err := u.orders.Owner(ctx, req.OrderID)
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
	case err != nil:
		return nil, err
	case owner != userID:
		return nil, domainErrors.ErrNotFound
	}

	now := u.now().UTC()
	item := model.QueueItem{
		ID:         uuid.New(),
		OrderID:    req.OrderID,
		UserID:     userID,
		Status:     model.QueuePending,
		MaxRetries: u.maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = QueueKey(item.ID)
	}
	item.Request = req

	activity := model.ActivityLog{
		ID:          uuid.New(),
		UserID:      userID,
		Action:      model.EventAutoOrderQueued,
		EntityType:  "order",
		EntityID:    req.OrderID,
		Description: "Order queued for auto-ordering",
		Details: map[string]any{
			"queue_id":   item.ID,
			"item_count": len(req.Items),
		},
		CreatedAt: now,
	}

	stored, err := u.queue.Enqueue(ctx, item, activity)
	if err != nil {
		return stored, err
	}
	u.logger.Info("order queued",
		slog.String("order_id", req.OrderID),
		slog.String("queue_id", stored.ID.String()),
	)
	return stored, nil
}

// Status lists the newest queue items of the user, narrowed to orderID when it is set.
func (u *QueueUseCase) Status(ctx context.Context, userID int64, orderID string) (*model.QueueOverview, error) {
	items, err := u.queue.List(ctx, userID, strings.TrimSpace(orderID), queueListLimit)
	if err != nil {
		return nil, err
	}
	return &model.QueueOverview{Items: items, Stats: model.CountQueue(items)}, nil
}

// Cancel stops a pending or retrying item.
func (u *QueueUseCase) Cancel(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	item, err := u.queue.Cancel(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	u.logger.Info("queued order cancelled", slog.String("queue_id", id.String()), slog.String("order_id", item.OrderID))
	return item, nil
}

// RetryNow makes a failed item due on the next pass. The retry count is kept.
func (u *QueueUseCase) RetryNow(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	item, err := u.queue.RetryNow(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	u.logger.Info("queued order released for retry", slog.String("queue_id", id.String()), slog.String("order_id", item.OrderID))
	return item, nil
}

// Process dispatches the items that are due, oldest first.
func (u *QueueUseCase) Process(ctx context.Context) (*model.QueueReport, error) {
	items, err := u.queue.ClaimDue(ctx, u.batch, u.lease)
	if err != nil {
		return nil, fmt.Errorf("claim queue items: %w", err)
	}

	report := &model.QueueReport{Results: []model.QueueResult{}}
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		report.Results = append(report.Results, u.process(ctx, item))
		report.Processed++
	}
	if report.Processed > 0 {
		u.logger.Info("queue pass finished", slog.Int("claimed", len(items)), slog.Int("processed", report.Processed))
	}
	return report, nil
}

func (u *QueueUseCase) process(ctx context.Context, item model.QueueItem) model.QueueResult {
	if item.MaxRetries <= 0 {
		item.MaxRetries = u.maxRetries
	}
	req := item.Request
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = QueueKey(item.ID)
	}

	outcome, err := u.placer.PlaceOrder(ctx, item.UserID, req)
	now := u.now().UTC()

	var (
		reason    string
		permanent bool
	)
	switch {
	case err != nil:
		reason = err.Error()
		permanent = rejected(err)
	case outcome.Status == model.OrderStatusOrdered:
		item.Status = model.QueueCompleted
		item.LastError = ""
		item.NextRetryAt = nil
		item.ProcessedAt = &now
		return u.settle(ctx, item, nil)
	default:
		var remaining []model.OrderItem
		remaining, reason = pendingItems(req.Items, outcome.Results)
		if reason == "" {
			// Every group of this attempt was placed; earlier attempts left permanent failures.
			reason = item.LastError
		}
		if len(remaining) == 0 {
			permanent = true
		} else {
			req.Items = remaining
		}
	}

	item.Request = req
	item.LastError = reason
	item.RetryCount++

	event := model.FulfillmentEvent{ID: uuid.New(), OrderID: item.OrderID, CreatedAt: now}
	if permanent || item.RetryCount >= item.MaxRetries {
		item.Status = model.QueueFailed
		item.NextRetryAt = nil
		item.ProcessedAt = &now
		event.Type = model.EventOrderFailed
		event.Data = map[string]any{"queue_id": item.ID, "retry_count": item.RetryCount, "error": reason}
		u.logger.Warn("queued order failed",
			slog.String("order_id", item.OrderID),
			slog.Int("retry_count", item.RetryCount),
			slog.String("error", reason),
		)
	} else {
		next := now.Add(model.RetryDelay(item.RetryCount, u.jitter()))
		item.Status = model.QueueRetry
		item.NextRetryAt = &next
		event.Type = model.EventOrderRetryScheduled
		event.Data = map[string]any{"queue_id": item.ID, "retry_count": item.RetryCount, "error": reason, "next_retry_at": next}
		u.logger.Info("queued order scheduled for retry",
			slog.String("order_id", item.OrderID),
			slog.Int("retry_count", item.RetryCount),
			slog.Time("next_retry_at", next),
		)
	}
	return u.settle(ctx, item, &event)
}

func (u *QueueUseCase) settle(ctx context.Context, item model.QueueItem, event *model.FulfillmentEvent) model.QueueResult {
	result := model.QueueResult{
		ID:        item.ID,
		OrderID:   item.OrderID,
		Status:    item.Status,
		Error:     item.LastError,
		WillRetry: item.Status == model.QueueRetry,
	}
	if err := u.queue.Settle(ctx, item, event); err != nil {
		u.logger.Error("queue item not settled",
			slog.String("queue_id", item.ID.String()),
			slog.String("order_id", item.OrderID),
			slog.String("error", err.Error()),
		)
		result.Error = err.Error()
	}
	return result
}

// rejected reports errors that no later attempt can fix.
func rejected(err error) bool {
	var invalid domainErrors.ValidationError
	return errors.As(err, &invalid) ||
		errors.Is(err, domainErrors.ErrMissingOrderID) ||
		errors.Is(err, domainErrors.ErrEmptyItems) ||
		errors.Is(err, domainErrors.ErrNotFound)
}

// pendingItems keeps the items of suppliers whose group failed in a way a retry can fix,
// and describes every failed group.
func pendingItems(items []model.OrderItem, results []model.SupplierOrderResult) ([]model.OrderItem, string) {
	retry := make(map[model.SupplierType]bool)
	var reasons []string
	for _, r := range results {
		if r.Success {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", r.Supplier, r.Error))
		if r.ErrorKind != model.ErrorKindUnsupportedSupplier {
			retry[r.Supplier] = true
		}
	}

	var remaining []model.OrderItem
	for _, item := range items {
		if retry[model.ParseSupplierType(string(item.SupplierType))] {
			remaining = append(remaining, item)
		}
	}
	return remaining, strings.Join(reasons, "; ")
}
