package dto

import "github.com/polkiloo/autoorder/internal/domain/model"

// Actions accepted by POST /auto-order-complete.
const (
	ActionPlaceOrder        = "place_order"
	ActionSyncTracking      = "sync_tracking"
	ActionBatchSyncTracking = "batch_sync_tracking"
	ActionGetStatus         = "get_status"
)

// AutoOrderRequest is the union payload of every auto-order action.
type AutoOrderRequest struct {
	Action          string                `json:"action"`
	OrderID         string                `json:"order_id"`
	StoreOrderID    string                `json:"store_order_id"`
	Items           []model.OrderItem     `json:"items"`
	Shipping        model.ShippingAddress `json:"shipping"`
	Priority        string                `json:"priority"`
	IdempotencyKey  string                `json:"idempotency_key"`
	SupplierOrderID string                `json:"supplier_order_id"`
	SupplierType    string                `json:"supplier_type"`
}

// PlaceOrderResponse reports per-supplier dispatch results.
type PlaceOrderResponse struct {
	Success         bool                        `json:"success"`
	PartialSuccess  bool                        `json:"partial_success"`
	Results         []model.SupplierOrderResult `json:"results"`
	TrackingNumbers []string                    `json:"tracking_numbers"`
}

// SyncTrackingResponse reports a single tracking sync.
type SyncTrackingResponse struct {
	Success    bool                `json:"success"`
	Tracking   *model.TrackingInfo `json:"tracking"`
	Updated    bool                `json:"updated"`
	Propagated bool                `json:"propagated"`
}

// BatchSyncResponse reports a batch tracking sync.
type BatchSyncResponse struct {
	Success bool                       `json:"success"`
	Synced  int                        `json:"synced"`
	Results []model.TrackingSyncResult `json:"results"`
}

// StatusResponse carries what the supplier reports for an order.
type StatusResponse struct {
	Success bool                `json:"success"`
	Status  *model.TrackingInfo `json:"status"`
}

// ErrorResponse is returned when the whole request fails.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
