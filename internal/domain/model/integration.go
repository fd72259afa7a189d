package model

// PlatformShopify is the only storefront tracking is propagated to.
const PlatformShopify = "shopify"

// StoreIntegration links a user to a storefront.
type StoreIntegration struct {
	ID          int64
	UserID      int64
	Platform    string
	ShopDomain  string
	AccessToken string
}
