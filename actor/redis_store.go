package actor

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store against a shared Redis instance: it is both
// the snapshot store (doc:{id} keys) and the cross-instance pub/sub bus
// (updates:doc:{id} channels), mirroring the single redis.Client used for
// both roles in the original implementation this system was distilled
// from.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, docID string) ([]byte, error) {
	b, err := s.client.Get(ctx, snapshotKey(docID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("actor: redis load %s: %w", docID, err)
	}
	return b, nil
}

func (s *RedisStore) Save(ctx context.Context, docID string, payload []byte) error {
	if err := s.client.Set(ctx, snapshotKey(docID), payload, 0).Err(); err != nil {
		return fmt.Errorf("actor: redis save %s: %w", docID, err)
	}
	return nil
}

func (s *RedisStore) Publish(ctx context.Context, docID string, payload []byte) error {
	if err := s.client.Publish(ctx, updatesChannel(docID), payload).Err(); err != nil {
		return fmt.Errorf("actor: redis publish %s: %w", docID, err)
	}
	return nil
}

func (s *RedisStore) Subscribe(ctx context.Context, docID string) (<-chan []byte, func(), error) {
	pubsub := s.client.Subscribe(ctx, updatesChannel(docID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("actor: redis subscribe %s: %w", docID, err)
	}

	out := make(chan []byte, 100)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			default:
				// Subscriber-side buffer full; drop rather than block the
				// redis client's delivery goroutine.
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}
