package repository

import (
	"context"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

// SealedCredential is a vault row with encrypted secrets.
type SealedCredential struct {
	UserID           int64
	Supplier         model.SupplierType
	AccessTokenSeal  []byte
	AppKey           string
	AppSecretSeal    []byte
	ConnectionStatus model.ConnectionStatus
}

// CredentialRepository provides access to the supplier credential vault.
type CredentialRepository interface {
	GetActive(ctx context.Context, userID int64, supplier model.SupplierType) (*SealedCredential, error)
	Upsert(ctx context.Context, cred SealedCredential) error
	Deactivate(ctx context.Context, userID int64, supplier model.SupplierType) error
}
