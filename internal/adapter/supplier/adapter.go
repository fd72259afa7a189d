// Package supplier defines the uniform contract every supplier integration implements
// and the registry the dispatcher resolves adapters from.
package supplier

import (
	"context"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

// OrderRequest is a single supplier group of a customer order.
type OrderRequest struct {
	OrderID   string
	Reference string
	Shipping  model.ShippingAddress
	Items     []model.OrderItem
}

// Adapter places orders and looks up tracking at one supplier.
type Adapter interface {
	Type() model.SupplierType
	CreateOrder(ctx context.Context, cred model.SupplierCredential, req OrderRequest) (*model.Placement, error)
	// GetTracking returns nil without error while the supplier has not shipped yet.
	GetTracking(ctx context.Context, cred model.SupplierCredential, supplierOrderID string) (*model.TrackingInfo, error)
}
