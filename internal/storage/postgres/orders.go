package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

type orderRepository struct {
	storage *Storage
}

const selectOrder = `SELECT id, user_id, store_order_id, status, fulfillment_status, supplier_order_ids,
        tracking_numbers, tracking_number, tracking_url, carrier, shipped_at, created_at, updated_at
    FROM orders WHERE id=$1 AND user_id=$2`

func (r *orderRepository) Get(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	var o model.Order
	err := r.storage.pool.QueryRow(ctx, selectOrder, orderID, userID).Scan(
		&o.ID, &o.UserID, &o.StoreOrderID, &o.Status, &o.FulfillmentStatus, &o.SupplierOrderIDs,
		&o.TrackingNumbers, &o.TrackingNumber, &o.TrackingURL, &o.Carrier, &o.ShippedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Owner(ctx context.Context, orderID string) (int64, error) {
	var userID int64
	if err := r.storage.pool.QueryRow(ctx, `SELECT user_id FROM orders WHERE id=$1`, orderID).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domainErrors.ErrNotFound
		}
		return 0, err
	}
	return userID, nil
}

func (r *orderRepository) FulfillmentScope(ctx context.Context, userID int64, orderID, supplierOrderID string) (*model.FulfillmentScope, error) {
	const query = `SELECT o.store_order_id, so.items FROM supplier_orders so
        JOIN orders o ON o.id = so.order_id
        WHERE so.order_id=$1 AND o.user_id=$2 AND so.supplier_order_id=$3`
	var (
		scope model.FulfillmentScope
		items []byte
	)
	if err := r.storage.pool.QueryRow(ctx, query, orderID, userID, supplierOrderID).Scan(&scope.StoreOrderID, &items); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUnknownSupplierOrder
		}
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &scope.Items); err != nil {
			return nil, fmt.Errorf("decode supplier order items: %w", err)
		}
	}
	return &scope, nil
}

// RecordDispatch folds the attempt into the stored order under a row lock. Supplier orders from
// earlier attempts are kept and fulfillment never moves back to pending.
func (r *orderRepository) RecordDispatch(ctx context.Context, record model.DispatchRecord) (model.DispatchState, error) {
	const reserveOrder = `INSERT INTO orders (id, user_id, store_order_id, status)
        VALUES ($1, $2, $3, 'order_failed')
        ON CONFLICT (id) DO NOTHING`
	const lockOrder = `SELECT user_id, fulfillment_status, supplier_order_ids, failed_suppliers
        FROM orders WHERE id=$1 FOR UPDATE`
	const updateOrder = `UPDATE orders SET
            status=$2, fulfillment_status=$3, supplier_order_ids=$4, failed_suppliers=$5,
            store_order_id=COALESCE(NULLIF($6, ''), store_order_id),
            updated_at=NOW()
        WHERE id=$1`
	const insertSupplierOrder = `INSERT INTO supplier_orders (order_id, supplier_type, supplier_order_id, order_number, items)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (supplier_type, supplier_order_id) DO NOTHING`

	var state model.DispatchState
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, reserveOrder, record.OrderID, record.UserID, record.StoreOrderID); err != nil {
			return fmt.Errorf("reserve order: %w", err)
		}

		var (
			owner  int64
			prior  model.DispatchState
			failed []string
		)
		if err := tx.QueryRow(ctx, lockOrder, record.OrderID).Scan(&owner, &prior.Fulfillment, &prior.SupplierOrderIDs, &failed); err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if owner != record.UserID {
			return domainErrors.ErrNotFound
		}
		for _, f := range failed {
			prior.FailedSuppliers = append(prior.FailedSuppliers, model.SupplierType(f))
		}

		state = prior.Apply(record.Outcome.Results)
		failed = make([]string, 0, len(state.FailedSuppliers))
		for _, f := range state.FailedSuppliers {
			failed = append(failed, string(f))
		}
		ids := state.SupplierOrderIDs
		if ids == nil {
			ids = []string{}
		}
		if _, err := tx.Exec(ctx, updateOrder, record.OrderID, state.Status, state.Fulfillment, ids, failed, record.StoreOrderID); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		for _, res := range record.Outcome.Results {
			if !res.Success || res.SupplierOrderID == "" {
				continue
			}
			items, err := json.Marshal(record.Items[res.Supplier])
			if err != nil {
				return fmt.Errorf("encode supplier order items: %w", err)
			}
			if _, err := tx.Exec(ctx, insertSupplierOrder, record.OrderID, res.Supplier, res.SupplierOrderID, res.OrderNumber, items); err != nil {
				return fmt.Errorf("insert supplier order: %w", err)
			}
		}

		if err := insertEvent(ctx, tx, record.Event); err != nil {
			return err
		}
		return insertActivity(ctx, tx, record.Activity)
	})
	if err != nil {
		return model.DispatchState{}, err
	}
	return state, nil
}

// ApplyTracking writes tracking on both the supplier order and the aggregate order.
func (r *orderRepository) ApplyTracking(ctx context.Context, target model.TrackingTarget, info model.TrackingInfo, event model.FulfillmentEvent) (bool, error) {
	const lockSupplierOrder = `SELECT so.tracking_number FROM supplier_orders so
        JOIN orders o ON o.id = so.order_id
        WHERE so.order_id=$1 AND o.user_id=$2 AND so.supplier_order_id=$3
        FOR UPDATE OF so`
	const updateSupplierOrder = `UPDATE supplier_orders SET tracking_number=$1, tracking_checked_at=NOW()
        WHERE order_id=$2 AND supplier_order_id=$3`
	const updateOrder = `UPDATE orders SET
            tracking_number=$1, tracking_url=$2, carrier=$3,
            tracking_numbers = CASE WHEN $1 = ANY(tracking_numbers) THEN tracking_numbers
                ELSE array_append(tracking_numbers, $1) END,
            fulfillment_status='shipped',
            shipped_at=COALESCE(shipped_at, NOW()),
            updated_at=NOW()
        WHERE id=$4 AND user_id=$5`

	changed := false
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var current *string
		if err := tx.QueryRow(ctx, lockSupplierOrder, target.OrderID, target.UserID, target.SupplierOrderID).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrUnknownSupplierOrder
			}
			return err
		}
		if current != nil && *current == info.TrackingNumber {
			return nil
		}

		if _, err := tx.Exec(ctx, updateSupplierOrder, info.TrackingNumber, target.OrderID, target.SupplierOrderID); err != nil {
			return fmt.Errorf("update supplier order: %w", err)
		}
		if _, err := tx.Exec(ctx, updateOrder, info.TrackingNumber, info.URL, info.Carrier, target.OrderID, target.UserID); err != nil {
			return fmt.Errorf("update order tracking: %w", err)
		}
		if err := insertEvent(ctx, tx, event); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (r *orderRepository) ListAwaitingTracking(ctx context.Context, userID int64) ([]model.TrackingTarget, error) {
	const query = `SELECT so.order_id, o.user_id, so.supplier_order_id, so.supplier_type
        FROM supplier_orders so
        JOIN orders o ON o.id = so.order_id
        WHERE o.user_id=$1 AND o.fulfillment_status <> 'pending' AND so.tracking_number IS NULL
        ORDER BY so.created_at, so.id`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.TrackingTarget
	for rows.Next() {
		var t model.TrackingTarget
		if err := rows.Scan(&t.OrderID, &t.UserID, &t.SupplierOrderID, &t.Supplier); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) ClaimAwaitingTracking(ctx context.Context, limit int, backoff time.Duration) ([]model.TrackingTarget, error) {
	const selectQuery = `SELECT so.id, so.order_id, o.user_id, so.supplier_order_id, so.supplier_type
        FROM supplier_orders so
        JOIN orders o ON o.id = so.order_id
        WHERE o.fulfillment_status <> 'pending' AND so.tracking_number IS NULL
            AND (so.tracking_checked_at IS NULL OR so.tracking_checked_at < NOW() - make_interval(secs => $2))
        ORDER BY so.tracking_checked_at NULLS FIRST, so.id
        LIMIT $1
        FOR UPDATE OF so SKIP LOCKED`
	const markChecked = `UPDATE supplier_orders SET tracking_checked_at=NOW() WHERE id = ANY($1)`

	var targets []model.TrackingTarget
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit, backoff.Seconds())
		if err != nil {
			return err
		}
		defer rows.Close()

		var ids []int64
		for rows.Next() {
			var id int64
			var t model.TrackingTarget
			if err := rows.Scan(&id, &t.OrderID, &t.UserID, &t.SupplierOrderID, &t.Supplier); err != nil {
				return err
			}
			ids = append(ids, id)
			targets = append(targets, t)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		if len(ids) == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, markChecked, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}

func insertEvent(ctx context.Context, tx pgx.Tx, event model.FulfillmentEvent) error {
	const query = `INSERT INTO fulfillment_events (id, order_id, event_type, event_data, created_at) VALUES ($1, $2, $3, $4, $5)`
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := tx.Exec(ctx, query, event.ID, event.OrderID, event.Type, data, event.CreatedAt); err != nil {
		return fmt.Errorf("insert fulfillment event: %w", err)
	}
	return nil
}

func insertActivity(ctx context.Context, tx pgx.Tx, entry model.ActivityLog) error {
	const query = `INSERT INTO activity_logs (id, user_id, action, entity_type, entity_id, description, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}
	if _, err := tx.Exec(ctx, query, entry.ID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID, entry.Description, details, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}
