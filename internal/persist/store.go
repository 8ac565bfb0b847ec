// Package persist keeps the serialized state of claim sessions so a
// session survives a restart of the process.
package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

type Store interface {
	Name() string
	// Get returns false when the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Backend string
	DSN     string
	TTL     time.Duration
	// Redis is required by the redis backend and owned by the caller.
	Redis *redis.Client
}

func Open(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemoryStore(cfg.TTL), nil
	case BackendRedis:
		if cfg.Redis == nil {
			return nil, errors.New("redis state store needs a client")
		}
		return NewRedisStore(cfg.Redis, cfg.TTL), nil
	case BackendPostgres, BackendSQLite:
		return OpenSQLStore(cfg.Backend, cfg.DSN, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Name() string {
	return BackendRedis
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close is a no-op. The client is shared with the search cache.
func (s *RedisStore) Close() error {
	return nil
}

type MemoryStore struct {
	store *gocache.Cache
}

// NewMemoryStore keeps state in process. A zero ttl never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		return &MemoryStore{store: gocache.New(gocache.NoExpiration, 0)}
	}
	return &MemoryStore{store: gocache.New(ttl, ttl)}
}

func (s *MemoryStore) Name() string {
	return BackendMemory
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := s.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	data := v.([]byte)
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	data := make([]byte, len(value))
	copy(data, value)
	s.store.SetDefault(key, data)
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.store.Delete(key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.store.Flush()
	return nil
}
