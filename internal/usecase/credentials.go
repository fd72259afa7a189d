package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
	"github.com/polkiloo/autoorder/internal/pkg/vault"
)

// CredentialResolver reads active supplier credentials from the vault.
type CredentialResolver struct {
	creds  repository.CredentialRepository
	cipher *vault.Cipher
	logger *slog.Logger
}

// NewCredentialResolver constructs CredentialResolver.
func NewCredentialResolver(creds repository.CredentialRepository, cipher *vault.Cipher, logger *slog.Logger) *CredentialResolver {
	return &CredentialResolver{creds: creds, cipher: cipher, logger: logger}
}

// Resolve returns the active credential for supplier, or nil when none is usable.
// Lookup and decryption failures are logged and reported as absent.
func (r *CredentialResolver) Resolve(ctx context.Context, userID int64, supplier model.SupplierType) *model.SupplierCredential {
	if !supplier.Supported() {
		return nil
	}
	sealed, err := r.creds.GetActive(ctx, userID, supplier)
	if err != nil {
		if !errors.Is(err, domainErrors.ErrNotFound) {
			r.logger.Warn("credential lookup failed",
				slog.Int64("user_id", userID),
				slog.String("supplier", string(supplier)),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	token, err := r.cipher.Open(sealed.AccessTokenSeal)
	if err != nil {
		r.logDecryptFailure(userID, supplier, err)
		return nil
	}
	if token == "" {
		return nil
	}
	secret, err := r.cipher.Open(sealed.AppSecretSeal)
	if err != nil {
		r.logDecryptFailure(userID, supplier, err)
		return nil
	}

	return &model.SupplierCredential{
		UserID:      userID,
		Supplier:    supplier,
		AccessToken: token,
		AppKey:      sealed.AppKey,
		AppSecret:   secret,
		Status:      sealed.ConnectionStatus,
	}
}

func (r *CredentialResolver) logDecryptFailure(userID int64, supplier model.SupplierType, err error) {
	r.logger.Error("credential decrypt failed",
		slog.Int64("user_id", userID),
		slog.String("supplier", string(supplier)),
		slog.String("error", err.Error()),
	)
}

// CredentialUseCase stores and revokes supplier credentials.
type CredentialUseCase struct {
	creds  repository.CredentialRepository
	cipher *vault.Cipher
}

// NewCredentialUseCase constructs CredentialUseCase.
func NewCredentialUseCase(creds repository.CredentialRepository, cipher *vault.Cipher) *CredentialUseCase {
	return &CredentialUseCase{creds: creds, cipher: cipher}
}

// Connect seals and stores credentials, reactivating a previously disconnected supplier.
func (u *CredentialUseCase) Connect(ctx context.Context, userID int64, supplier model.SupplierType, in model.CredentialInput) error {
	if !supplier.Supported() {
		return domainErrors.ErrUnsupportedSupplier
	}
	token := strings.TrimSpace(in.AccessToken)
	if token == "" {
		return domainErrors.ErrInvalidCredentials
	}

	tokenSeal, err := u.cipher.Seal(token)
	if err != nil {
		return err
	}
	secretSeal, err := u.cipher.Seal(strings.TrimSpace(in.AppSecret))
	if err != nil {
		return err
	}

	return u.creds.Upsert(ctx, repository.SealedCredential{
		UserID:           userID,
		Supplier:         supplier,
		AccessTokenSeal:  tokenSeal,
		AppKey:           strings.TrimSpace(in.AppKey),
		AppSecretSeal:    secretSeal,
		ConnectionStatus: model.ConnectionActive,
	})
}

// Disconnect marks the supplier credential inactive.
func (u *CredentialUseCase) Disconnect(ctx context.Context, userID int64, supplier model.SupplierType) error {
	if !supplier.Supported() {
		return domainErrors.ErrUnsupportedSupplier
	}
	return u.creds.Deactivate(ctx, userID, supplier)
}
