package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/autoorder/internal/config"
	"github.com/polkiloo/autoorder/internal/domain/repository"
)

// Module provides the idempotency store: Redis when configured, in-memory otherwise.
var Module = fx.Provide(newIdempotencyStore)

type storeParams struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	Lifecycle fx.Lifecycle
}

var pingTimeout = 5 * time.Second

func newIdempotencyStore(p storeParams) (repository.IdempotencyStore, error) {
	if p.Config.RedisAddress == "" {
		store := NewInMemoryIdempotencyStore(5 * time.Minute)
		p.Lifecycle.Append(fx.Hook{OnStop: func(context.Context) error { return store.Close() }})
		p.Logger.Info("using in-memory idempotency store")
		return store, nil
	}

	opts, err := redisOptions(p.Config.RedisAddress)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	p.Lifecycle.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
	p.Logger.Info("using redis idempotency store", slog.String("addr", opts.Addr))
	return NewRedisIdempotencyStore(client, ""), nil
}

// redisOptions accepts both redis:// URLs and bare host:port addresses.
func redisOptions(addr string) (*redis.Options, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}
