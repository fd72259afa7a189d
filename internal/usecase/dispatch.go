package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/autoorder/internal/adapter/supplier"
	"github.com/polkiloo/autoorder/internal/config"
	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
)

// SupplierGroup holds the items of one supplier in request order.
type SupplierGroup struct {
	Supplier model.SupplierType
	Items    []model.OrderItem
}

// GroupItems partitions items by supplier. Groups keep the order in which their supplier first
// appears and items keep their relative order; unknown suppliers land in the generic group.
func GroupItems(items []model.OrderItem) []SupplierGroup {
	index := make(map[model.SupplierType]int)
	var groups []SupplierGroup
	for _, item := range items {
		s := model.ParseSupplierType(string(item.SupplierType))
		item.SupplierType = s
		i, ok := index[s]
		if !ok {
			i = len(groups)
			index[s] = i
			groups = append(groups, SupplierGroup{Supplier: s})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// SupplierReference is the order number sent to suppliers for orderID.
func SupplierReference(orderID string) string {
	if len(orderID) > 8 {
		orderID = orderID[:8]
	}
	return "ORD-" + orderID
}

// DispatchUseCase places one customer order across its suppliers.
type DispatchUseCase struct {
	orders      repository.OrderRepository
	registry    *supplier.Registry
	credentials *CredentialResolver
	idempotency repository.IdempotencyStore
	ttl         time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewDispatchUseCase constructs DispatchUseCase.
func NewDispatchUseCase(
	orders repository.OrderRepository,
	registry *supplier.Registry,
	credentials *CredentialResolver,
	idempotency repository.IdempotencyStore,
	cfg *config.Config,
	logger *slog.Logger,
) *DispatchUseCase {
	return &DispatchUseCase{
		orders:      orders,
		registry:    registry,
		credentials: credentials,
		idempotency: idempotency,
		ttl:         cfg.IdempotencyTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// PlaceOrder dispatches every supplier group sequentially and records the aggregate outcome once.
// A failing group never aborts the others; only invalid input or a persistence failure is returned as an error.
func (u *DispatchUseCase) PlaceOrder(ctx context.Context, userID int64, req model.PlaceOrderRequest) (*model.DispatchOutcome, error) {
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

	groups := GroupItems(req.Items)
	results := make([]model.SupplierOrderResult, 0, len(groups))
	for _, group := range groups {
		res := u.dispatchGroup(ctx, userID, req, group)
		results = append(results, res)
	}

	succeeded := 0
	tracking := []string{}
	for _, r := range results {
		if r.Success {
			succeeded++
		}
		if r.TrackingNumber != nil {
			tracking = append(tracking, *r.TrackingNumber)
		}
	}

	status, fulfillment := model.AggregateStatus(results)
	outcome := &model.DispatchOutcome{
		OrderID:         req.OrderID,
		Success:         status == model.OrderStatusOrdered,
		PartialSuccess:  status == model.OrderStatusPartiallyOrdered,
		Status:          status,
		Fulfillment:     fulfillment,
		Results:         results,
		TrackingNumbers: tracking,
	}

	items := make(map[model.SupplierType][]model.OrderItem, len(groups))
	for _, g := range groups {
		items[g.Supplier] = g.Items
	}

	now := u.now().UTC()
	record := model.DispatchRecord{
		OrderID:      req.OrderID,
		UserID:       userID,
		StoreOrderID: req.StoreOrderID,
		Outcome:      *outcome,
		Items:        items,
		Event: model.FulfillmentEvent{
			ID:      uuid.New(),
			OrderID: req.OrderID,
			Type:    model.EventAutoOrderPlaced,
			Data: map[string]any{
				"results":          results,
				"all_success":      outcome.Success,
				"tracking_numbers": tracking,
			},
			CreatedAt: now,
		},
		Activity: model.ActivityLog{
			ID:          uuid.New(),
			UserID:      userID,
			Action:      model.EventAutoOrderPlaced,
			EntityType:  "order",
			EntityID:    req.OrderID,
			Description: fmt.Sprintf("Auto-order placed: %d/%d suppliers successful", succeeded, len(results)),
			Details: map[string]any{
				"results":        results,
				"store_order_id": req.StoreOrderID,
			},
			CreatedAt: now,
		},
	}

	state, err := u.orders.RecordDispatch(ctx, record)
	if err != nil {
		u.logger.Error("dispatch not recorded",
			slog.String("order_id", req.OrderID),
			slog.Int64("user_id", userID),
			slog.Any("results", results),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("record dispatch: %w", err)
	}
	// The stored aggregate also reflects supplier orders placed by earlier attempts.
	outcome.Status = state.Status
	outcome.Fulfillment = state.Fulfillment

	u.logger.Info("auto-order dispatched",
		slog.String("order_id", req.OrderID),
		slog.String("status", string(outcome.Status)),
		slog.Int("suppliers", len(results)),
		slog.Int("succeeded", succeeded),
	)
	return outcome, nil
}

// IdempotencyKey scopes a caller supplied key to the user, the order and one supplier group.
func IdempotencyKey(userID int64, orderID, key string, s model.SupplierType) string {
	return fmt.Sprintf("%d:%s:%s:%s", userID, orderID, key, s)
}

func (u *DispatchUseCase) dispatchGroup(ctx context.Context, userID int64, req model.PlaceOrderRequest, group SupplierGroup) model.SupplierOrderResult {
	adapter, ok := u.registry.Lookup(group.Supplier)
	if !group.Supplier.Supported() || !ok {
		return failed(group.Supplier, fmt.Errorf("%w: %s", domainErrors.ErrUnsupportedSupplier, group.Supplier))
	}

	key := ""
	if req.IdempotencyKey != "" {
		key = IdempotencyKey(userID, req.OrderID, req.IdempotencyKey, group.Supplier)
		if res, done := u.claim(ctx, key, group.Supplier); done {
			return res
		}
	}

	res := u.place(ctx, userID, req, group, adapter)

	if key != "" {
		u.settle(ctx, key, res)
	}
	return res
}

func (u *DispatchUseCase) place(ctx context.Context, userID int64, req model.PlaceOrderRequest, group SupplierGroup, adapter supplier.Adapter) model.SupplierOrderResult {
	cred := u.credentials.Resolve(ctx, userID, group.Supplier)
	if cred == nil {
		return failed(group.Supplier, domainErrors.ErrCredentialsMissing)
	}

	placement, err := adapter.CreateOrder(ctx, *cred, supplier.OrderRequest{
		OrderID:   req.OrderID,
		Reference: SupplierReference(req.OrderID),
		Shipping:  req.Shipping,
		Items:     group.Items,
	})
	if err != nil {
		u.logger.Warn("supplier order failed",
			slog.String("order_id", req.OrderID),
			slog.String("supplier", string(group.Supplier)),
			slog.String("error", err.Error()),
		)
		return failed(group.Supplier, err)
	}
	if !placement.Confirmed {
		u.logger.Warn("supplier order left unconfirmed",
			slog.String("order_id", req.OrderID),
			slog.String("supplier", string(group.Supplier)),
			slog.String("supplier_order_id", placement.SupplierOrderID),
		)
	}

	return model.SupplierOrderResult{
		Supplier:        group.Supplier,
		Success:         true,
		SupplierOrderID: placement.SupplierOrderID,
		OrderNumber:     placement.OrderNumber,
	}
}

// claim returns a final result when the key was already dispatched or is being dispatched.
func (u *DispatchUseCase) claim(ctx context.Context, key string, s model.SupplierType) (model.SupplierOrderResult, bool) {
	prev, err := u.idempotency.Load(ctx, key)
	if err != nil {
		u.logger.Warn("idempotency lookup failed", slog.String("key", key), slog.String("error", err.Error()))
		return model.SupplierOrderResult{}, false
	}
	if prev != nil && prev.Success {
		return *prev, true
	}

	ok, err := u.idempotency.Claim(ctx, key, u.ttl)
	if err != nil {
		u.logger.Warn("idempotency claim failed", slog.String("key", key), slog.String("error", err.Error()))
		return model.SupplierOrderResult{}, false
	}
	if !ok {
		return model.SupplierOrderResult{
			Supplier:  s,
			Error:     "dispatch already in progress",
			ErrorKind: model.ErrorKindDispatchInProgress,
		}, true
	}
	return model.SupplierOrderResult{}, false
}

func (u *DispatchUseCase) settle(ctx context.Context, key string, res model.SupplierOrderResult) {
	var err error
	if res.Success {
		err = u.idempotency.Save(ctx, key, res, u.ttl)
	} else {
		err = u.idempotency.Release(ctx, key)
	}
	if err != nil {
		u.logger.Warn("idempotency update failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func failed(s model.SupplierType, err error) model.SupplierOrderResult {
	return model.SupplierOrderResult{
		Supplier:  s,
		Error:     err.Error(),
		ErrorKind: domainErrors.KindOf(err),
	}
}

// Order returns the stored fulfillment state of one of the user's orders.
func (u *DispatchUseCase) Order(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domainErrors.ErrMissingOrderID
	}
	return u.orders.Get(ctx, userID, orderID)
}
