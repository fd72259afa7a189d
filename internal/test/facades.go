package test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	PlaceFn func(context.Context, int64, model.PlaceOrderRequest) (*model.DispatchOutcome, error)
	OrderFn func(context.Context, int64, string) (*model.Order, error)
}

// PlaceOrder delegates to provided function or reports every group as ordered.
func (s OrderFacadeStub) PlaceOrder(ctx context.Context, userID int64, req model.PlaceOrderRequest) (*model.DispatchOutcome, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, userID, req)
	}
	results := make([]model.SupplierOrderResult, 0, len(req.Items))
	seen := make(map[model.SupplierType]bool)
	for _, item := range req.Items {
		s := model.ParseSupplierType(string(item.SupplierType))
		if seen[s] {
			continue
		}
		seen[s] = true
		results = append(results, model.SupplierOrderResult{Supplier: s, Success: true, SupplierOrderID: string(s) + "-1"})
	}
	return &model.DispatchOutcome{
		OrderID:         req.OrderID,
		Success:         true,
		Status:          model.OrderStatusOrdered,
		Fulfillment:     model.FulfillmentSupplierOrdered,
		Results:         results,
		TrackingNumbers: []string{},
	}, nil
}

// Order returns configured order or a default one.
func (s OrderFacadeStub) Order(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusOrdered, FulfillmentStatus: model.FulfillmentSupplierOrdered}, nil
}

// QueueFacadeStub simulates the auto-order queue.
type QueueFacadeStub struct {
	EnqueueFn  func(context.Context, int64, model.PlaceOrderRequest) (*model.QueueItem, error)
	OverviewFn func(context.Context, int64, string) (*model.QueueOverview, error)
	CancelFn   func(context.Context, int64, uuid.UUID) (*model.QueueItem, error)
	RetryFn    func(context.Context, int64, uuid.UUID) (*model.QueueItem, error)
}

// EnqueueOrder returns configured result or a new pending item.
func (s QueueFacadeStub) EnqueueOrder(ctx context.Context, userID int64, req model.PlaceOrderRequest) (*model.QueueItem, error) {
	if s.EnqueueFn != nil {
		return s.EnqueueFn(ctx, userID, req)
	}
	return &model.QueueItem{ID: uuid.New(), OrderID: req.OrderID, UserID: userID, Status: model.QueuePending, Request: req}, nil
}

// QueueStatus returns configured overview or an empty one.
func (s QueueFacadeStub) QueueStatus(ctx context.Context, userID int64, orderID string) (*model.QueueOverview, error) {
	if s.OverviewFn != nil {
		return s.OverviewFn(ctx, userID, orderID)
	}
	return &model.QueueOverview{Items: []model.QueueItem{}}, nil
}

// CancelQueued executes configured handler or reports the item missing.
func (s QueueFacadeStub) CancelQueued(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, userID, id)
	}
	return nil, domainErrors.ErrNotFound
}

// RetryQueued executes configured handler or reports the item missing.
func (s QueueFacadeStub) RetryQueued(ctx context.Context, userID int64, id uuid.UUID) (*model.QueueItem, error) {
	if s.RetryFn != nil {
		return s.RetryFn(ctx, userID, id)
	}
	return nil, domainErrors.ErrNotFound
}

// TrackingFacadeStub simulates tracking operations.
type TrackingFacadeStub struct {
	SyncFn   func(context.Context, int64, model.TrackingTarget) (*model.TrackingSyncResult, error)
	BatchFn  func(context.Context, int64) (*model.BatchSyncReport, error)
	StatusFn func(context.Context, int64, model.SupplierType, string) (*model.TrackingInfo, error)
}

// SyncOrderTracking returns configured result or an unchanged sync.
func (s TrackingFacadeStub) SyncOrderTracking(ctx context.Context, userID int64, target model.TrackingTarget) (*model.TrackingSyncResult, error) {
	if s.SyncFn != nil {
		return s.SyncFn(ctx, userID, target)
	}
	return &model.TrackingSyncResult{OrderID: target.OrderID, SupplierOrderID: target.SupplierOrderID}, nil
}

// BatchSyncTracking returns configured report or an empty one.
func (s TrackingFacadeStub) BatchSyncTracking(ctx context.Context, userID int64) (*model.BatchSyncReport, error) {
	if s.BatchFn != nil {
		return s.BatchFn(ctx, userID)
	}
	return &model.BatchSyncReport{Results: []model.TrackingSyncResult{}}, nil
}

// SupplierStatus returns configured tracking or nothing.
func (s TrackingFacadeStub) SupplierStatus(ctx context.Context, userID int64, supplier model.SupplierType, supplierOrderID string) (*model.TrackingInfo, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, userID, supplier, supplierOrderID)
	}
	return nil, nil
}

// SettingsFacadeStub simulates credential and integration management.
type SettingsFacadeStub struct {
	ConnectFn    func(context.Context, int64, model.SupplierType, model.CredentialInput) error
	DisconnectFn func(context.Context, int64, model.SupplierType) error
	ShopifyFn    func(context.Context, int64, string, string) (*model.StoreIntegration, error)
}

// ConnectSupplier executes configured handler.
func (s SettingsFacadeStub) ConnectSupplier(ctx context.Context, userID int64, supplier model.SupplierType, in model.CredentialInput) error {
	if s.ConnectFn != nil {
		return s.ConnectFn(ctx, userID, supplier, in)
	}
	return nil
}

// DisconnectSupplier executes configured handler.
func (s SettingsFacadeStub) DisconnectSupplier(ctx context.Context, userID int64, supplier model.SupplierType) error {
	if s.DisconnectFn != nil {
		return s.DisconnectFn(ctx, userID, supplier)
	}
	return nil
}

// ConnectShopify returns configured integration or echoes the input.
func (s SettingsFacadeStub) ConnectShopify(ctx context.Context, userID int64, shopDomain, accessToken string) (*model.StoreIntegration, error) {
	if s.ShopifyFn != nil {
		return s.ShopifyFn(ctx, userID, shopDomain, accessToken)
	}
	return &model.StoreIntegration{ID: 1, UserID: userID, Platform: model.PlatformShopify, ShopDomain: shopDomain, AccessToken: accessToken}, nil
}

// FulfillmentFacadeStub aggregates facade dependencies for HTTP layer tests.
type FulfillmentFacadeStub struct {
	AuthFacadeStub
	OrderFacadeStub
	QueueFacadeStub
	TrackingFacadeStub
	SettingsFacadeStub
}

// SweeperFacadeStub mimics sweeper interactions with the fulfillment facade.
type SweeperFacadeStub struct {
	Batches [][]model.TrackingTarget
	ClaimFn func(context.Context, int, time.Duration) ([]model.TrackingTarget, error)
	SyncFn  func(context.Context, model.TrackingTarget) model.TrackingSyncResult
	Synced  []model.TrackingTarget
	Backoff time.Duration

	mu     sync.Mutex
	claims int
}

// Lock exposes internal mutex for external synchronization.
func (s *SweeperFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *SweeperFacadeStub) Unlock() { s.mu.Unlock() }

// ClaimPendingTracking returns configured batches one per call.
func (s *SweeperFacadeStub) ClaimPendingTracking(ctx context.Context, limit int, backoff time.Duration) ([]model.TrackingTarget, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit, backoff)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Backoff = backoff
	s.claims++
	if s.claims <= len(s.Batches) {
		return s.Batches[s.claims-1], nil
	}
	return nil, nil
}

// SyncTracking records the target and returns configured result.
func (s *SweeperFacadeStub) SyncTracking(ctx context.Context, target model.TrackingTarget) model.TrackingSyncResult {
	s.mu.Lock()
	s.Synced = append(s.Synced, target)
	s.mu.Unlock()
	if s.SyncFn != nil {
		return s.SyncFn(ctx, target)
	}
	return model.TrackingSyncResult{OrderID: target.OrderID, SupplierOrderID: target.SupplierOrderID, Updated: true}
}

// HealthCheckerStub reports Err from every check.
type HealthCheckerStub struct {
	Err error
}

func (s HealthCheckerStub) HealthCheck(context.Context) error {
	return s.Err
}

// QueueProcessorStub counts queue passes and answers them with Report or Err.
type QueueProcessorStub struct {
	Report    *model.QueueReport
	Err       error
	ProcessFn func(context.Context) (*model.QueueReport, error)

	mu     sync.Mutex
	passes int
}

func (s *QueueProcessorStub) ProcessQueue(ctx context.Context) (*model.QueueReport, error) {
	s.mu.Lock()
	s.passes++
	s.mu.Unlock()
	if s.ProcessFn != nil {
		return s.ProcessFn(ctx)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Report == nil {
		return &model.QueueReport{}, nil
	}
	return s.Report, nil
}

// Passes returns the number of ProcessQueue calls.
func (s *QueueProcessorStub) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}
