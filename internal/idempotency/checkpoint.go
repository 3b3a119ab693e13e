package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

// checkpointKeyPrefix namespaces cascade checkpoints in Redis.
const checkpointKeyPrefix = "cascade:"

// pendingKeyPrefix namespaces recorded cascade intents in Redis.
const pendingKeyPrefix = "cascade:pending:"

// pendingCascade is the recorded intent of a duration edit: the durations a
// retry needs after the edited event was already persisted with the new one.
type pendingCascade struct {
	OldDuration int `cbor:"old_duration"`
	NewDuration int `cbor:"new_duration"`
}

func pendingKey(serieID, eventID string) string {
	return serieID + ":" + eventID
}

// CheckpointTTL bounds how long an interrupted cascade stays resumable. A
// checkpoint that expires only costs a fresh retry; events already shifted by
// a completed-and-cleared cascade are never revisited.
const CheckpointTTL = 24 * time.Hour

// InMemoryCheckpointStore records cascade progress in memory. It satisfies
// series.CheckpointStore and is used in tests and single-process deployments.
type InMemoryCheckpointStore struct {
	mu      sync.RWMutex
	shifted map[string][]string
	pending map[string]pendingCascade
	touched map[string]time.Time
	now     func() time.Time
}

// NewInMemoryCheckpointStore creates an in-memory cascade checkpoint store.
func NewInMemoryCheckpointStore() *InMemoryCheckpointStore {
	return &InMemoryCheckpointStore{
		shifted: make(map[string][]string),
		pending: make(map[string]pendingCascade),
		touched: make(map[string]time.Time),
		now:     time.Now,
	}
}

// ShiftedEventIDs returns the event IDs already shifted under key.
func (s *InMemoryCheckpointStore) ShiftedEventIDs(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.shifted[key]...), nil
}

// MarkShifted records that eventID was shifted under key.
func (s *InMemoryCheckpointStore) MarkShifted(ctx context.Context, key, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[key] = s.now()
	for _, id := range s.shifted[key] {
		if id == eventID {
			return nil
		}
	}
	s.shifted[key] = append(s.shifted[key], eventID)
	return nil
}

// Clear removes the checkpoint.
func (s *InMemoryCheckpointStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shifted, key)
	delete(s.touched, key)
	return nil
}

// SavePending records the durations of a cascade about to run.
func (s *InMemoryCheckpointStore) SavePending(ctx context.Context, serieID, eventID string, oldDuration, newDuration int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pk := pendingKey(serieID, eventID)
	s.pending[pk] = pendingCascade{OldDuration: oldDuration, NewDuration: newDuration}
	s.touched[pk] = s.now()
	return nil
}

// Pending returns the recorded durations for (serieID, eventID).
func (s *InMemoryCheckpointStore) Pending(ctx context.Context, serieID, eventID string) (int, int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pending[pendingKey(serieID, eventID)]
	if !ok {
		return 0, 0, false, nil
	}
	return p.OldDuration, p.NewDuration, true, nil
}

// ClearPending removes the recorded intent.
func (s *InMemoryCheckpointStore) ClearPending(ctx context.Context, serieID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pk := pendingKey(serieID, eventID)
	delete(s.pending, pk)
	delete(s.touched, pk)
	return nil
}

// SweepOlderThan drops checkpoints and recorded intents not touched within
// age. Redis entries expire natively; this keeps the in-memory store bounded.
// Returns the number of entries removed.
func (s *InMemoryCheckpointStore) SweepOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-age)
	var removed int64
	for key, at := range s.touched {
		if at.Before(cutoff) {
			delete(s.shifted, key)
			delete(s.pending, key)
			delete(s.touched, key)
			removed++
		}
	}
	return removed, nil
}

// RedisCheckpointStore records cascade progress as a Redis set per cascade
// key, expiring after CheckpointTTL.
type RedisCheckpointStore struct {
	client *redis.Client
}

// NewRedisCheckpointStore creates a Redis-backed cascade checkpoint store.
func NewRedisCheckpointStore(client *redis.Client) *RedisCheckpointStore {
	return &RedisCheckpointStore{client: client}
}

// ShiftedEventIDs returns the event IDs already shifted under key.
func (s *RedisCheckpointStore) ShiftedEventIDs(ctx context.Context, key string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, checkpointKeyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read cascade checkpoint: %w", err)
	}
	return ids, nil
}

// MarkShifted records that eventID was shifted under key.
func (s *RedisCheckpointStore) MarkShifted(ctx context.Context, key, eventID string) error {
	full := checkpointKeyPrefix + key
	if err := s.client.SAdd(ctx, full, eventID).Err(); err != nil {
		return fmt.Errorf("redis write cascade checkpoint: %w", err)
	}
	if err := s.client.Expire(ctx, full, CheckpointTTL).Err(); err != nil {
		return fmt.Errorf("redis expire cascade checkpoint: %w", err)
	}
	return nil
}

// Clear removes the checkpoint once the cascade completed.
func (s *RedisCheckpointStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, checkpointKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis clear cascade checkpoint: %w", err)
	}
	return nil
}

// SavePending records the durations of a cascade about to run, expiring
// after CheckpointTTL like the checkpoint itself.
func (s *RedisCheckpointStore) SavePending(ctx context.Context, serieID, eventID string, oldDuration, newDuration int) error {
	raw, err := cbor.Marshal(pendingCascade{OldDuration: oldDuration, NewDuration: newDuration})
	if err != nil {
		return fmt.Errorf("encode cascade intent: %w", err)
	}
	if err := s.client.Set(ctx, pendingKeyPrefix+pendingKey(serieID, eventID), raw, CheckpointTTL).Err(); err != nil {
		return fmt.Errorf("redis write cascade intent: %w", err)
	}
	return nil
}

// Pending returns the recorded durations for (serieID, eventID).
func (s *RedisCheckpointStore) Pending(ctx context.Context, serieID, eventID string) (int, int, bool, error) {
	raw, err := s.client.Get(ctx, pendingKeyPrefix+pendingKey(serieID, eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("redis read cascade intent: %w", err)
	}
	var p pendingCascade
	if err := cbor.Unmarshal(raw, &p); err != nil {
		return 0, 0, false, fmt.Errorf("decode cascade intent: %w", err)
	}
	return p.OldDuration, p.NewDuration, true, nil
}

// ClearPending removes the recorded intent once the cascade completed.
func (s *RedisCheckpointStore) ClearPending(ctx context.Context, serieID, eventID string) error {
	if err := s.client.Del(ctx, pendingKeyPrefix+pendingKey(serieID, eventID)).Err(); err != nil {
		return fmt.Errorf("redis clear cascade intent: %w", err)
	}
	return nil
}
