package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

type queueRepository struct {
	storage *Storage
}

const queueColumns = `id, order_id, user_id, status, retry_count, max_retries, payload,
        error_message, next_retry_at, processed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueItem(row rowScanner) (*model.QueueItem, error) {
	var (
		item    model.QueueItem
		payload []byte
	)
	err := row.Scan(&item.ID, &item.OrderID, &item.UserID, &item.Status, &item.RetryCount, &item.MaxRetries, &payload,
		&item.LastError, &item.NextRetryAt, &item.ProcessedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &item.Request); err != nil {
		return nil, fmt.Errorf("decode queue payload: %w", err)
	}
	return &item, nil
}

func (r *queueRepository) Enqueue(ctx context.Context, item model.QueueItem, activity model.ActivityLog) (*model.QueueItem, error) {
	const insertItem = `INSERT INTO auto_order_queue (id, order_id, user_id, status, max_retries, payload)
        VALUES ($1, $2, $3, 'pending', $4, $5)
        ON CONFLICT (order_id) WHERE status IN ('pending', 'processing', 'retry') DO NOTHING
        RETURNING created_at, updated_at`
	const selectActive = `SELECT ` + queueColumns + ` FROM auto_order_queue
        WHERE order_id=$1 AND status IN ('pending', 'processing', 'retry')`

	payload, err := json.Marshal(item.Request)
	if err != nil {
		return nil, fmt.Errorf("encode queue payload: %w", err)
	}

	var existing *model.QueueItem
	err = r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertItem, item.ID, item.OrderID, item.UserID, item.MaxRetries, payload).Scan(&item.CreatedAt, &item.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			found, err := scanQueueItem(tx.QueryRow(ctx, selectActive, item.OrderID))
			if err != nil {
				return fmt.Errorf("load queued order: %w", err)
			}
			if found.UserID != item.UserID {
				return domainErrors.ErrNotFound
			}
			existing = found
			return domainErrors.ErrAlreadyQueued
		}
		if err != nil {
			return fmt.Errorf("insert queue item: %w", err)
		}
		return insertActivity(ctx, tx, activity)
	})
	if err != nil {
		return existing, err
	}
	item.Status = model.QueuePending
	return &item, nil
}

func (r *queueRepository) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]model.QueueItem, error) {
	const selectDue = `SELECT ` + queueColumns + ` FROM auto_order_queue
        WHERE status = 'pending'
            OR (status = 'retry' AND next_retry_at <= NOW())
            OR (status = 'processing' AND updated_at < NOW() - make_interval(secs => $2))
        ORDER BY created_at
        LIMIT $1
        FOR UPDATE SKIP LOCKED`
	const markProcessing = `UPDATE auto_order_queue SET status='processing', updated_at=NOW() WHERE id = ANY($1)`

	var items []model.QueueItem
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectDue, limit, lease.Seconds())
		if err != nil {
			return err
		}
		defer rows.Close()

		var ids []uuid.UUID
		for rows.Next() {
			item, err := scanQueueItem(rows)
			if err != nil {
				return err
			}
			item.Status = model.QueueProcessing
			ids = append(ids, item.ID)
			items = append(items, *item)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		if len(ids) == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, markProcessing, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *queueRepository) Settle(ctx context.Context, item model.QueueItem, event *model.FulfillmentEvent) error {
	const updateItem = `UPDATE auto_order_queue SET
            status=$2, retry_count=$3, error_message=$4, next_retry_at=$5, payload=$6, processed_at=$7, updated_at=NOW()
        WHERE id=$1 AND status='processing'`
	// Orders rejected before dispatch have no row to attach the event to.
	const insertOrderEvent = `INSERT INTO fulfillment_events (id, order_id, event_type, event_data, created_at)
        SELECT $1::uuid, $2::text, $3::text, $4::jsonb, $5::timestamptz
        WHERE EXISTS (SELECT 1 FROM orders WHERE id = $2::text)`

	payload, err := json.Marshal(item.Request)
	if err != nil {
		return fmt.Errorf("encode queue payload: %w", err)
	}

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateItem, item.ID, item.Status, item.RetryCount, item.LastError, item.NextRetryAt, payload, item.ProcessedAt)
		if err != nil {
			return fmt.Errorf("settle queue item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrQueueState
		}
		if event == nil {
			return nil
		}
		data, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		if _, err := tx.Exec(ctx, insertOrderEvent, event.ID, event.OrderID, event.Type, data, event.CreatedAt); err != nil {
			return fmt.Errorf("insert fulfillment event: %w", err)
		}
		return nil
	})
}

func (r *queueRepository) List(ctx context.Context, userID int64, orderID string, limit int) ([]model.QueueItem, error) {
	const query = `SELECT ` + queueColumns + ` FROM auto_order_queue
        WHERE user_id=$1 AND ($2::text = '' OR order_id = $2::text)
        ORDER BY created_at DESC
        LIMIT $3`
	rows, err := r.storage.pool.Query(ctx, query, userID, orderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.QueueItem{}
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *queueRepository) Cancel(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	const query = `UPDATE auto_order_queue SET status='cancelled', updated_at=NOW()
        WHERE id=$1 AND user_id=$2 AND status IN ('pending', 'retry')
        RETURNING ` + queueColumns
	return r.transition(ctx, query, userID, id)
}

func (r *queueRepository) RetryNow(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	const query = `UPDATE auto_order_queue SET status='pending', next_retry_at=NULL, updated_at=NOW()
        WHERE id=$1 AND user_id=$2 AND status='failed'
        RETURNING ` + queueColumns
	return r.transition(ctx, query, userID, id)
}

// transition runs a guarded status update and tells a missing item from one in the wrong status.
func (r *queueRepository) transition(ctx context.Context, query string, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	item, err := scanQueueItem(r.storage.pool.QueryRow(ctx, query, id, userID))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var status model.QueueStatus
	err = r.storage.pool.QueryRow(ctx, `SELECT status FROM auto_order_queue WHERE id=$1 AND user_id=$2`, id, userID).Scan(&status)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, domainErrors.ErrNotFound
	case err != nil:
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", domainErrors.ErrQueueState, status)
}
