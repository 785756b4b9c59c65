package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// OffsetStore remembers the next update id to request from the transport so
// a restarted bot does not replay handled updates.
type OffsetStore interface {
	GetOffset(ctx context.Context) (int64, error)
	SetOffset(ctx context.Context, offset int64) error
}

type redisOffsetStore struct {
	redisClient redis.Cmdable
	key         string
}

func NewRedisOffsetStore(redisClient redis.Cmdable) OffsetStore {
	return &redisOffsetStore{
		redisClient: redisClient,
		key:         "storefront:updates:offset",
	}
}

func (s *redisOffsetStore) GetOffset(ctx context.Context) (int64, error) {
	val, err := s.redisClient.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil // Nothing handled yet
		}
		return 0, fmt.Errorf("failed to get update offset: %w", err)
	}

	offset, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse update offset %q: %w", val, err)
	}

	return offset, nil
}

func (s *redisOffsetStore) SetOffset(ctx context.Context, offset int64) error {
	err := s.redisClient.Set(ctx, s.key, offset, 0).Err() // No expiration
	if err != nil {
		return fmt.Errorf("failed to set update offset: %w", err)
	}
	return nil
}

type memoryOffsetStore struct {
	mu     sync.Mutex
	offset int64
}

func NewMemoryOffsetStore() OffsetStore {
	return &memoryOffsetStore{}
}

func (s *memoryOffsetStore) GetOffset(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset, nil
}

func (s *memoryOffsetStore) SetOffset(_ context.Context, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = offset
	return nil
}
