package actor

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisStore_LoadMissingReturnsErrNotFound(t *testing.T) {
	store := newTestRedisStore(t)
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SaveThenLoadRoundTrips(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "doc-1", []byte(`{"nodes":[],"language":"go"}`)))

	b, err := store.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"language":"go"}`, string(b))
}

func TestRedisStore_PublishSubscribe(t *testing.T) {
	store := newTestRedisStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, stop, err := store.Subscribe(ctx, "doc-1")
	require.NoError(t, err)
	defer stop()

	require.NoError(t, store.Publish(ctx, "doc-1", []byte(`{"type":"cursor"}`)))

	select {
	case payload := <-ch:
		assert.JSONEq(t, `{"type":"cursor"}`, string(payload))
	case <-ctx.Done():
		t.Fatal("timed out waiting for published message")
	}
}
