package test

import (
	"context"
	"sync"

	"github.com/polkiloo/autoorder/internal/adapter/supplier"
	"github.com/polkiloo/autoorder/internal/domain/model"
)

// SupplierAdapterStub records calls and returns configured placements and tracking.
type SupplierAdapterStub struct {
	Supplier  model.SupplierType
	CreateFn  func(context.Context, model.SupplierCredential, supplier.OrderRequest) (*model.Placement, error)
	TrackFn   func(context.Context, model.SupplierCredential, string) (*model.TrackingInfo, error)
	Tracking  *model.TrackingInfo
	CreateErr error

	mu       sync.Mutex
	Requests []supplier.OrderRequest
	Lookups  []string
}

// Type returns the configured supplier.
func (s *SupplierAdapterStub) Type() model.SupplierType { return s.Supplier }

// CreateOrder records the request and returns a placement derived from the order id.
func (s *SupplierAdapterStub) CreateOrder(ctx context.Context, cred model.SupplierCredential, req supplier.OrderRequest) (*model.Placement, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
	if s.CreateFn != nil {
		return s.CreateFn(ctx, cred, req)
	}
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	return &model.Placement{
		SupplierOrderID: string(s.Supplier) + "-" + req.OrderID,
		OrderNumber:     req.Reference,
		Confirmed:       true,
	}, nil
}

// GetTracking records the lookup and returns configured tracking.
func (s *SupplierAdapterStub) GetTracking(ctx context.Context, cred model.SupplierCredential, supplierOrderID string) (*model.TrackingInfo, error) {
	s.mu.Lock()
	s.Lookups = append(s.Lookups, supplierOrderID)
	s.mu.Unlock()
	if s.TrackFn != nil {
		return s.TrackFn(ctx, cred, supplierOrderID)
	}
	return s.Tracking, nil
}

// Calls returns the number of CreateOrder invocations.
func (s *SupplierAdapterStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

// StorefrontStub records fulfillment updates pushed to a storefront.
type StorefrontStub struct {
	Err     error
	mu      sync.Mutex
	Updates []StorefrontUpdate
}

// StorefrontUpdate captures one UpdateFulfillment call.
type StorefrontUpdate struct {
	Integration  model.StoreIntegration
	StoreOrderID string
	Items        []model.OrderItem
	Tracking     model.TrackingInfo
}

// UpdateFulfillment stores the update and returns the configured error.
func (s *StorefrontStub) UpdateFulfillment(ctx context.Context, integration model.StoreIntegration, scope model.FulfillmentScope, tracking model.TrackingInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates = append(s.Updates, StorefrontUpdate{Integration: integration, StoreOrderID: scope.StoreOrderID, Items: scope.Items, Tracking: tracking})
	return s.Err
}

var _ supplier.Adapter = (*SupplierAdapterStub)(nil)
