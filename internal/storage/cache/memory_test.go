package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	defer store.Close()
	ctx := context.Background()

	t.Run("claim is exclusive", func(t *testing.T) {
		ok, err := store.Claim(ctx, "k1:cj", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "k1:cj", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)

		res, err := store.Load(ctx, "k1:cj")
		require.NoError(t, err)
		assert.Nil(t, res, "a bare claim has no result")
	})

	t.Run("saved result is replayed", func(t *testing.T) {
		saved := model.SupplierOrderResult{Supplier: model.SupplierCJ, Success: true, SupplierOrderID: "CJ-1"}
		require.NoError(t, store.Save(ctx, "k2:cj", saved, time.Hour))

		res, err := store.Load(ctx, "k2:cj")
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, saved, *res)

		ok, err := store.Claim(ctx, "k2:cj", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release frees key", func(t *testing.T) {
		_, err := store.Claim(ctx, "k3:bigbuy", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "k3:bigbuy"))

		ok, err := store.Claim(ctx, "k3:bigbuy", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired entries are ignored", func(t *testing.T) {
		now := time.Now()
		store.now = func() time.Time { return now }
		require.NoError(t, store.Save(ctx, "k4:cj", model.SupplierOrderResult{Success: true}, time.Minute))

		store.now = func() time.Time { return now.Add(2 * time.Minute) }
		res, err := store.Load(ctx, "k4:cj")
		require.NoError(t, err)
		assert.Nil(t, res)

		ok, err := store.Claim(ctx, "k4:cj", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		store.now = time.Now
	})
}

func TestInMemoryIdempotencyStoreCloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
