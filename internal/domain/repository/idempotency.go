package repository

import (
	"context"
	"time"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

// IdempotencyStore guards supplier order creation against duplicate submissions.
type IdempotencyStore interface {
	// Load returns a previously saved result, or nil when none was stored.
	Load(ctx context.Context, key string) (*model.SupplierOrderResult, error)
	// Claim reserves key; it returns false when another dispatch holds it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Save(ctx context.Context, key string, result model.SupplierOrderResult, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}
