package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces idempotency records in Redis.
const redisKeyPrefix = "idem:"

// RedisRepository implements Repository on Redis. Records are CBOR-encoded
// and expire natively via TTL, so DeleteOlderThan is a reporting no-op.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository creates a Redis-backed idempotency repository. ttl
// bounds how long cached responses are replayed; zero falls back to
// DefaultExpiry.
func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	if ttl <= 0 {
		ttl = DefaultExpiry
	}
	return &RedisRepository{client: client, ttl: ttl}
}

// Get retrieves a record by key. Returns ErrKeyNotFound if absent or expired.
func (r *RedisRepository) Get(ctx context.Context, key string) (*Record, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get idempotency key: %w", err)
	}

	var record Record
	if err := cbor.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &record, nil
}

// Store saves a new record with the configured TTL. Returns ErrKeyExists
// when the key is already present.
func (r *RedisRepository) Store(ctx context.Context, record *Record) error {
	if err := ValidateKey(record.Key); err != nil {
		return err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	raw, err := cbor.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}

	stored, err := r.client.SetNX(ctx, redisKeyPrefix+record.Key, raw, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis store idempotency key: %w", err)
	}
	if !stored {
		return ErrKeyExists
	}
	return nil
}

// DeleteOlderThan is satisfied by Redis TTL expiry; nothing to scan.
func (r *RedisRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return 0, nil
}
