package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoState is returned by a Store that holds no state for a key.
var ErrNoState = errors.New("no throttle state")

// Store persists throttle state between requests.
type Store interface {
	Load(ctx context.Context, key string) (*ThrottleState, error)
	Save(ctx context.Context, key string, state *ThrottleState, ttl time.Duration) error
}

// RedisStore keeps throttle state in Redis so consecutive runs against the
// same store see the bucket drained by their predecessors.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// Load reads the state stored under key.
func (s *RedisStore) Load(ctx context.Context, key string) (*ThrottleState, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var state ThrottleState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse throttle state: %w", err)
	}
	return &state, nil
}

// Save stores state under key with the given TTL.
func (s *RedisStore) Save(ctx context.Context, key string, state *ThrottleState, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal throttle state: %w", err)
	}
	if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// MemoryStore keeps throttle state for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	state   ThrottleState
	expires time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Load returns a copy of the state stored under key.
func (s *MemoryStore) Load(_ context.Context, key string) (*ThrottleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrNoState
	}
	if !entry.expires.IsZero() && s.now().After(entry.expires) {
		delete(s.entries, key)
		return nil, ErrNoState
	}
	state := entry.state
	return &state, nil
}

// Save stores a copy of state under key. A zero ttl never expires.
func (s *MemoryStore) Save(_ context.Context, key string, state *ThrottleState, ttl time.Duration) error {
	if state == nil {
		return fmt.Errorf("throttle state cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{state: *state}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}
