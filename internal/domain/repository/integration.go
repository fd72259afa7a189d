package repository

import "context"

// SealedIntegration is a storefront integration row with an encrypted token.
type SealedIntegration struct {
	ID         int64
	UserID     int64
	Platform   string
	ShopDomain string
	TokenSeal  []byte
}

// IntegrationRepository stores storefront connections.
type IntegrationRepository interface {
	GetActive(ctx context.Context, userID int64, platform string) (*SealedIntegration, error)
	Upsert(ctx context.Context, integration SealedIntegration) (int64, error)
}
