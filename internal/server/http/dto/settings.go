package dto

import "time"

// SupplierCredentialsRequest carries supplier API secrets.
type SupplierCredentialsRequest struct {
	AccessToken string `json:"access_token"`
	AppKey      string `json:"app_key"`
	AppSecret   string `json:"app_secret"`
}

// ShopifyIntegrationRequest connects a Shopify store.
type ShopifyIntegrationRequest struct {
	ShopDomain  string `json:"shop_domain"`
	AccessToken string `json:"access_token"`
}

// IntegrationResponse describes a stored integration without its token.
type IntegrationResponse struct {
	ID         int64  `json:"id"`
	Platform   string `json:"platform"`
	ShopDomain string `json:"shop_domain"`
}

// OrderResponse is the fulfillment state of an order.
type OrderResponse struct {
	ID                string     `json:"id"`
	StoreOrderID      string     `json:"store_order_id,omitempty"`
	Status            string     `json:"status"`
	FulfillmentStatus string     `json:"fulfillment_status"`
	SupplierOrderIDs  []string   `json:"supplier_order_ids"`
	TrackingNumbers   []string   `json:"tracking_numbers"`
	TrackingNumber    *string    `json:"tracking_number,omitempty"`
	TrackingURL       *string    `json:"tracking_url,omitempty"`
	Carrier           *string    `json:"carrier,omitempty"`
	ShippedAt         *time.Time `json:"shipped_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
