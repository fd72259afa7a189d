package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/repository"
)

type integrationRepository struct {
	storage *Storage
}

func (r *integrationRepository) GetActive(ctx context.Context, userID int64, platform string) (*repository.SealedIntegration, error) {
	const query = `SELECT id, shop_domain, access_token_encrypted FROM store_integrations
        WHERE user_id=$1 AND platform=$2 AND is_active`
	in := repository.SealedIntegration{UserID: userID, Platform: platform}
	if err := r.storage.pool.QueryRow(ctx, query, userID, platform).Scan(&in.ID, &in.ShopDomain, &in.TokenSeal); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &in, nil
}

func (r *integrationRepository) Upsert(ctx context.Context, in repository.SealedIntegration) (int64, error) {
	const query = `INSERT INTO store_integrations (user_id, platform, shop_domain, access_token_encrypted)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, platform) DO UPDATE SET
            shop_domain = EXCLUDED.shop_domain,
            access_token_encrypted = EXCLUDED.access_token_encrypted,
            is_active = TRUE,
            updated_at = NOW()
        RETURNING id`
	var id int64
	if err := r.storage.pool.QueryRow(ctx, query, in.UserID, in.Platform, in.ShopDomain, in.TokenSeal).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
