package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the business status written after a dispatch.
type OrderStatus string

const (
	OrderStatusOrdered          OrderStatus = "ordered"
	OrderStatusPartiallyOrdered OrderStatus = "partially_ordered"
	OrderStatusFailed           OrderStatus = "order_failed"
)

// FulfillmentStatus is the physical-goods lifecycle stage of an order.
type FulfillmentStatus string

const (
	FulfillmentPending         FulfillmentStatus = "pending"
	FulfillmentSupplierOrdered FulfillmentStatus = "supplier_ordered"
	FulfillmentShipped         FulfillmentStatus = "shipped"
)

// OrderItem is a single line of a customer order. Immutable once submitted to dispatch.
type OrderItem struct {
	ProductID    string          `json:"product_id"`
	VariantID    string          `json:"variant_id,omitempty"`
	SKU          string          `json:"sku"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	SupplierSKU  string          `json:"supplier_sku,omitempty"`
	SupplierType SupplierType    `json:"supplier_type"`
}

// SupplierReference returns the identifier the supplier knows the item by.
func (i OrderItem) SupplierReference() string {
	if i.SupplierSKU != "" {
		return i.SupplierSKU
	}
	return i.SKU
}

// ShippingAddress is the delivery destination. Required fields are validated before any supplier call.
type ShippingAddress struct {
	Name        string `json:"name" validate:"required"`
	Address1    string `json:"address1" validate:"required"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city" validate:"required"`
	Province    string `json:"province" validate:"required"`
	PostalCode  string `json:"postal_code" validate:"required"`
	CountryCode string `json:"country_code" validate:"required,len=2"`
	Phone       string `json:"phone" validate:"required"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}

// Street joins both address lines.
func (a ShippingAddress) Street() string {
	if a.Address2 == "" {
		return a.Address1
	}
	return a.Address1 + " " + a.Address2
}

// Order holds the aggregate fields this service writes on a customer order.
type Order struct {
	ID                string
	UserID            int64
	StoreOrderID      string
	Status            OrderStatus
	FulfillmentStatus FulfillmentStatus
	SupplierOrderIDs  []string
	TrackingNumbers   []string
	TrackingNumber    *string
	TrackingURL       *string
	Carrier           *string
	ShippedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AggregateStatus maps per-group results to the order status and fulfillment stage.
func AggregateStatus(results []SupplierOrderResult) (OrderStatus, FulfillmentStatus) {
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	switch {
	case succeeded > 0 && succeeded == len(results):
		return OrderStatusOrdered, FulfillmentSupplierOrdered
	case succeeded > 0:
		return OrderStatusPartiallyOrdered, FulfillmentSupplierOrdered
	default:
		return OrderStatusFailed, FulfillmentPending
	}
}

// DispatchState is the aggregate an order accumulates over every dispatch attempt.
type DispatchState struct {
	Status           OrderStatus
	Fulfillment      FulfillmentStatus
	SupplierOrderIDs []string
	FailedSuppliers  []SupplierType
}

// Apply folds the results of one attempt into the state. Supplier orders placed earlier are kept,
// a supplier that succeeds now leaves the failed set and fulfillment never moves back to pending.
// Results of a dispatch still in progress elsewhere change nothing.
func (s DispatchState) Apply(results []SupplierOrderResult) DispatchState {
	next := DispatchState{Fulfillment: s.Fulfillment}

	seen := make(map[string]struct{}, len(s.SupplierOrderIDs)+len(results))
	addID := func(id string) {
		if _, ok := seen[id]; ok || id == "" {
			return
		}
		seen[id] = struct{}{}
		next.SupplierOrderIDs = append(next.SupplierOrderIDs, id)
	}
	for _, id := range s.SupplierOrderIDs {
		addID(id)
	}

	placed := len(s.SupplierOrderIDs) > 0
	attempted := make(map[SupplierType]bool, len(results))
	for _, r := range results {
		if r.ErrorKind == ErrorKindDispatchInProgress {
			continue
		}
		attempted[r.Supplier] = r.Success
		if r.Success {
			placed = true
			addID(r.SupplierOrderID)
		}
	}
	failed := make(map[SupplierType]struct{})
	for _, sup := range s.FailedSuppliers {
		if _, retried := attempted[sup]; retried {
			continue
		}
		if _, ok := failed[sup]; !ok {
			failed[sup] = struct{}{}
			next.FailedSuppliers = append(next.FailedSuppliers, sup)
		}
	}
	for _, r := range results {
		if r.ErrorKind == ErrorKindDispatchInProgress || attempted[r.Supplier] {
			continue
		}
		if _, ok := failed[r.Supplier]; !ok {
			failed[r.Supplier] = struct{}{}
			next.FailedSuppliers = append(next.FailedSuppliers, r.Supplier)
		}
	}

	switch {
	case !placed:
		next.Status = OrderStatusFailed
	case len(next.FailedSuppliers) == 0:
		next.Status = OrderStatusOrdered
	default:
		next.Status = OrderStatusPartiallyOrdered
	}
	if next.Fulfillment == "" || next.Fulfillment == FulfillmentPending {
		next.Fulfillment = FulfillmentPending
		if placed {
			next.Fulfillment = FulfillmentSupplierOrdered
		}
	}
	return next
}

// DispatchOutcome is returned to callers of a place-order request.
type DispatchOutcome struct {
	OrderID         string
	Success         bool
	PartialSuccess  bool
	Status          OrderStatus
	Fulfillment     FulfillmentStatus
	Results         []SupplierOrderResult
	TrackingNumbers []string
}

// PlaceOrderRequest is a customer order materialized for dispatch.
type PlaceOrderRequest struct {
	OrderID        string          `json:"order_id"`
	StoreOrderID   string          `json:"store_order_id,omitempty"`
	Items          []OrderItem     `json:"items"`
	Shipping       ShippingAddress `json:"shipping"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}
