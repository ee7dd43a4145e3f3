package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker occupies a key while the first request is in flight.
const pendingMarker = "__pending__"

// IdempotencyStore guards booking creation against duplicate submits.
// The first request with a given key claims it with SetNX; retries of
// the same request get the stored booking ID back instead of creating
// a second booking. Keys expire after the configured TTL.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a store over an existing Redis client
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// NewRedisClient connects to Redis from a URL
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func (s *IdempotencyStore) key(userID, idempotencyKey string) string {
	return "idem:" + userID + ":" + idempotencyKey
}

// Claim attempts to take ownership of an idempotency key. It returns
// the acquired flag, and when the key is already completed, the stored
// booking ID. A key claimed but not yet completed by another request
// reports acquired=false with an empty booking ID.
func (s *IdempotencyStore) Claim(ctx context.Context, userID, idempotencyKey string) (acquired bool, bookingID string, err error) {
	key := s.key(userID, idempotencyKey)

	ok, err := s.client.SetNX(ctx, key, pendingMarker, s.ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if ok {
		return true, "", nil
	}

	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SetNX and Get. Treat as in flight.
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if value == pendingMarker {
		return false, "", nil
	}

	return false, value, nil
}

// Complete records the booking created under a claimed key
func (s *IdempotencyStore) Complete(ctx context.Context, userID, idempotencyKey, bookingID string) error {
	key := s.key(userID, idempotencyKey)
	if err := s.client.Set(ctx, key, bookingID, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

// Release frees a claimed key after a failed creation so the client
// can retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, userID, idempotencyKey string) error {
	key := s.key(userID, idempotencyKey)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
