package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polkiloo/autoorder/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Credentials() repository.CredentialRepository {
	return &credentialRepository{storage: s}
}

func (s *Storage) Integrations() repository.IntegrationRepository {
	return &integrationRepository{storage: s}
}

func (s *Storage) Queue() repository.QueueRepository {
	return &queueRepository{storage: s}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id SERIAL PRIMARY KEY,
        login TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS orders (
        id TEXT PRIMARY KEY,
        user_id BIGINT NOT NULL REFERENCES users(id),
        store_order_id TEXT NOT NULL DEFAULT '',
        status TEXT NOT NULL,
        fulfillment_status TEXT NOT NULL DEFAULT 'pending',
        supplier_order_ids TEXT[] NOT NULL DEFAULT '{}',
        failed_suppliers TEXT[] NOT NULL DEFAULT '{}',
        tracking_numbers TEXT[] NOT NULL DEFAULT '{}',
        tracking_number TEXT,
        tracking_url TEXT,
        carrier TEXT,
        shipped_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS supplier_orders (
        id BIGSERIAL PRIMARY KEY,
        order_id TEXT NOT NULL REFERENCES orders(id),
        supplier_type TEXT NOT NULL,
        supplier_order_id TEXT NOT NULL,
        order_number TEXT NOT NULL DEFAULT '',
        items JSONB NOT NULL DEFAULT '[]',
        tracking_number TEXT,
        tracking_checked_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (supplier_type, supplier_order_id)
    )`,
	`CREATE TABLE IF NOT EXISTS fulfillment_events (
        id UUID PRIMARY KEY,
        order_id TEXT NOT NULL REFERENCES orders(id),
        event_type TEXT NOT NULL,
        event_data JSONB NOT NULL DEFAULT '{}',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
        id UUID PRIMARY KEY,
        user_id BIGINT NOT NULL REFERENCES users(id),
        action TEXT NOT NULL,
        entity_type TEXT NOT NULL,
        entity_id TEXT NOT NULL,
        description TEXT NOT NULL,
        details JSONB NOT NULL DEFAULT '{}',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS supplier_credentials_vault (
        id BIGSERIAL PRIMARY KEY,
        user_id BIGINT NOT NULL REFERENCES users(id),
        supplier_type TEXT NOT NULL,
        access_token_encrypted BYTEA,
        app_key TEXT NOT NULL DEFAULT '',
        app_secret_encrypted BYTEA,
        connection_status TEXT NOT NULL DEFAULT 'active',
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (user_id, supplier_type)
    )`,
	`CREATE TABLE IF NOT EXISTS store_integrations (
        id BIGSERIAL PRIMARY KEY,
        user_id BIGINT NOT NULL REFERENCES users(id),
        platform TEXT NOT NULL,
        shop_domain TEXT NOT NULL,
        access_token_encrypted BYTEA NOT NULL,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (user_id, platform)
    )`,
	`CREATE TABLE IF NOT EXISTS auto_order_queue (
        id UUID PRIMARY KEY,
        order_id TEXT NOT NULL,
        user_id BIGINT NOT NULL REFERENCES users(id),
        status TEXT NOT NULL DEFAULT 'pending',
        retry_count INT NOT NULL DEFAULT 0,
        max_retries INT NOT NULL DEFAULT 5,
        payload JSONB NOT NULL,
        error_message TEXT NOT NULL DEFAULT '',
        next_retry_at TIMESTAMPTZ,
        processed_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_auto_order_queue_active ON auto_order_queue(order_id) WHERE status IN ('pending', 'processing', 'retry')`,
	`CREATE INDEX IF NOT EXISTS idx_auto_order_queue_due ON auto_order_queue(status, next_retry_at, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_supplier_orders_pending ON supplier_orders(tracking_checked_at) WHERE tracking_number IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_fulfillment_events_order ON fulfillment_events(order_id, created_at)`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
