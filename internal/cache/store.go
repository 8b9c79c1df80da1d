package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreFull is returned by Set when the backing store refuses the write
// for capacity reasons.
var ErrStoreFull = errors.New("cache store full")

// Store is the key-value backing of the cache. Implementations hold plain
// strings; the cache layer owns serialization, namespacing and expiry.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string)
	Keys() []string
}

// MemoryStore is an in-process Store with optional size caps, mirroring the
// quota behavior of a browser session store.
type MemoryStore struct {
	mu         sync.RWMutex
	data       map[string]string
	maxEntries int
	maxBytes   int
	bytes      int
}

// NewMemoryStore creates an unbounded in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// NewBoundedMemoryStore creates a store that rejects writes once either
// limit would be exceeded. A zero limit means unlimited.
func NewBoundedMemoryStore(maxEntries, maxBytes int) *MemoryStore {
	return &MemoryStore{data: make(map[string]string), maxEntries: maxEntries, maxBytes: maxBytes}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, exists := s.data[key]
	newEntries := len(s.data)
	if !exists {
		newEntries++
	}
	newBytes := s.bytes - len(old) + len(value)

	if s.maxEntries > 0 && newEntries > s.maxEntries {
		return ErrStoreFull
	}
	if s.maxBytes > 0 && newBytes > s.maxBytes {
		return ErrStoreFull
	}

	s.data[key] = value
	s.bytes = newBytes
	return nil
}

func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.data[key]; ok {
		s.bytes -= len(old)
		delete(s.data, key)
	}
}

func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// RedisStore backs the cache with Redis so several app instances can share
// one session scope. Entries carry a coarse server-side TTL as a backstop;
// the precise per-entry expiry still lives in the serialized payload.
type RedisStore struct {
	client  *redis.Client
	ctx     context.Context
	pattern string
	maxTTL  time.Duration
}

// NewRedisStore creates a store scanning keys under pattern (e.g. "pontual_*").
func NewRedisStore(client *redis.Client, pattern string, maxTTL time.Duration) *RedisStore {
	if maxTTL <= 0 {
		maxTTL = 24 * time.Hour
	}
	return &RedisStore{client: client, ctx: context.Background(), pattern: pattern, maxTTL: maxTTL}
}

func (s *RedisStore) Get(key string) (string, bool) {
	val, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *RedisStore) Set(key, value string) error {
	return s.client.Set(s.ctx, key, value, s.maxTTL).Err()
}

func (s *RedisStore) Remove(key string) {
	_ = s.client.Del(s.ctx, key).Err()
}

func (s *RedisStore) Keys() []string {
	var keys []string
	iter := s.client.Scan(s.ctx, 0, s.pattern, 0).Iterator()
	for iter.Next(s.ctx) {
		keys = append(keys, iter.Val())
	}
	return keys
}
