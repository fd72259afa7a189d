package usecase

import (
	"context"
	"strings"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
	"github.com/polkiloo/autoorder/internal/pkg/vault"
)

// IntegrationUseCase manages storefront connections.
type IntegrationUseCase struct {
	integrations repository.IntegrationRepository
	cipher       *vault.Cipher
}

// NewIntegrationUseCase constructs IntegrationUseCase.
func NewIntegrationUseCase(integrations repository.IntegrationRepository, cipher *vault.Cipher) *IntegrationUseCase {
	return &IntegrationUseCase{integrations: integrations, cipher: cipher}
}

// ConnectShopify stores the shop domain and Admin API token.
func (u *IntegrationUseCase) ConnectShopify(ctx context.Context, userID int64, shopDomain, accessToken string) (*model.StoreIntegration, error) {
	shopDomain = strings.TrimSuffix(strings.TrimSpace(shopDomain), "/")
	shopDomain = strings.TrimPrefix(strings.TrimPrefix(shopDomain, "https://"), "http://")
	accessToken = strings.TrimSpace(accessToken)
	if shopDomain == "" || accessToken == "" {
		return nil, domainErrors.ErrInvalidCredentials
	}

	seal, err := u.cipher.Seal(accessToken)
	if err != nil {
		return nil, err
	}
	id, err := u.integrations.Upsert(ctx, repository.SealedIntegration{
		UserID:     userID,
		Platform:   model.PlatformShopify,
		ShopDomain: shopDomain,
		TokenSeal:  seal,
	})
	if err != nil {
		return nil, err
	}
	return &model.StoreIntegration{
		ID:          id,
		UserID:      userID,
		Platform:    model.PlatformShopify,
		ShopDomain:  shopDomain,
		AccessToken: accessToken,
	}, nil
}

// Shopify returns the user's active Shopify integration with its token opened.
func (u *IntegrationUseCase) Shopify(ctx context.Context, userID int64) (*model.StoreIntegration, error) {
	sealed, err := u.integrations.GetActive(ctx, userID, model.PlatformShopify)
	if err != nil {
		return nil, err
	}
	token, err := u.cipher.Open(sealed.TokenSeal)
	if err != nil {
		return nil, err
	}
	return &model.StoreIntegration{
		ID:          sealed.ID,
		UserID:      sealed.UserID,
		Platform:    sealed.Platform,
		ShopDomain:  sealed.ShopDomain,
		AccessToken: token,
	}, nil
}
