package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
)

type credentialRepository struct {
	storage *Storage
}

func (r *credentialRepository) GetActive(ctx context.Context, userID int64, supplier model.SupplierType) (*repository.SealedCredential, error) {
	const query = `SELECT access_token_encrypted, app_key, app_secret_encrypted, connection_status
        FROM supplier_credentials_vault
        WHERE user_id=$1 AND supplier_type=$2 AND connection_status='active'`
	cred := repository.SealedCredential{UserID: userID, Supplier: supplier}
	err := r.storage.pool.QueryRow(ctx, query, userID, supplier.VaultKey()).Scan(
		&cred.AccessTokenSeal, &cred.AppKey, &cred.AppSecretSeal, &cred.ConnectionStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) Upsert(ctx context.Context, cred repository.SealedCredential) error {
	const query = `INSERT INTO supplier_credentials_vault
            (user_id, supplier_type, access_token_encrypted, app_key, app_secret_encrypted, connection_status)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id, supplier_type) DO UPDATE SET
            access_token_encrypted = EXCLUDED.access_token_encrypted,
            app_key = EXCLUDED.app_key,
            app_secret_encrypted = EXCLUDED.app_secret_encrypted,
            connection_status = EXCLUDED.connection_status,
            updated_at = NOW()`
	status := cred.ConnectionStatus
	if status == "" {
		status = model.ConnectionActive
	}
	_, err := r.storage.pool.Exec(ctx, query, cred.UserID, cred.Supplier.VaultKey(), cred.AccessTokenSeal, cred.AppKey, cred.AppSecretSeal, status)
	return err
}

func (r *credentialRepository) Deactivate(ctx context.Context, userID int64, supplier model.SupplierType) error {
	const query = `UPDATE supplier_credentials_vault SET connection_status=$1, updated_at=NOW()
        WHERE user_id=$2 AND supplier_type=$3`
	tag, err := r.storage.pool.Exec(ctx, query, model.ConnectionInactive, userID, supplier.VaultKey())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
