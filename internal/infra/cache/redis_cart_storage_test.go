package cache

import (
	"context"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCartStorage, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCartStorage(client), mr
}

func TestRedisCartStorage_LoadMiss(t *testing.T) {
	s, _ := setupTestRedis(t)

	_, err := s.Load(context.Background(), "cart:v1:none")
	assert.ErrorIs(t, err, cart.ErrStorageMiss)
}

func TestRedisCartStorage_SaveSetsTTL(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "cart:v1:abc", []byte(`{"version":1,"items":[]}`)))

	stored, err := mr.Get("cart:v1:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":[]}`, stored)
	assert.Equal(t, 30*24*time.Hour, mr.TTL("cart:v1:abc"))
}

func TestRedisCartStorage_StoreRoundTrip(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	store := cart.Open(ctx, "sess-9", s, nil)
	require.NoError(t, store.Add(ctx, model.CartItem{ProductID: "p1", VariantID: "v1", UnitPrice: 5000, Quantity: 2}))
	assert.True(t, mr.Exists(cart.SchemaKey("sess-9")))

	reopened := cart.Open(ctx, "sess-9", s, nil)
	assert.Equal(t, int64(10000), reopened.Total())

	reopened.Clear(ctx)
	assert.False(t, mr.Exists(cart.SchemaKey("sess-9")))
}

func TestRedisCartStorage_ServerDownDegradesStore(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()
	mr.Close()

	store := cart.Open(ctx, "sess-down", s, nil)
	assert.True(t, store.Degraded())
	require.NoError(t, store.Add(ctx, model.CartItem{ProductID: "p1", VariantID: "v1", UnitPrice: 100, Quantity: 1}))
	assert.Equal(t, int64(100), store.Total())
}

func TestRedisCartStorage_ServerDownKeepsSessionInMemory(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()
	sessions := cart.NewSessions(s, nil)
	mr.Close()

	store := sessions.Open(ctx, "sess-down")
	require.NoError(t, store.Add(ctx, model.CartItem{ProductID: "p1", VariantID: "v1", UnitPrice: 100, Quantity: 2}))

	next := sessions.Open(ctx, "sess-down")
	assert.True(t, next.Degraded())
	assert.Equal(t, int64(200), next.Total())
}
