package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/flightclaim/internal/models"
)

// Cache stores raw flight search results per normalized query.
type Cache interface {
	Name() string
	Get(ctx context.Context, q models.FlightQuery) ([]models.RawFlight, bool)
	Set(ctx context.Context, q models.FlightQuery, flights []models.RawFlight) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      5 * time.Minute,
	}
}

// NewRedisClient connects and pings. It is shared by the search cache and
// the state store.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisCacheWithClient(client, cfg.TTL), nil
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisCache) Name() string {
	return "redis"
}

func (c *RedisCache) Get(ctx context.Context, q models.FlightQuery) ([]models.RawFlight, bool) {
	data, err := c.client.Get(ctx, generateKey(q)).Bytes()
	if err != nil {
		return nil, false
	}

	var flights []models.RawFlight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, false
	}

	return flights, true
}

func (c *RedisCache) Set(ctx context.Context, q models.FlightQuery, flights []models.RawFlight) error {
	data, err := json.Marshal(flights)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, generateKey(q), data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache keeps results in process. Entries expire after ttl.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Name() string {
	return "memory"
}

func (c *MemoryCache) Get(ctx context.Context, q models.FlightQuery) ([]models.RawFlight, bool) {
	v, ok := c.store.Get(generateKey(q))
	if !ok {
		return nil, false
	}
	flights, ok := v.([]models.RawFlight)
	if !ok {
		return nil, false
	}
	out := make([]models.RawFlight, len(flights))
	copy(out, flights)
	return out, true
}

func (c *MemoryCache) Set(ctx context.Context, q models.FlightQuery, flights []models.RawFlight) error {
	stored := make([]models.RawFlight, len(flights))
	copy(stored, flights)
	c.store.SetDefault(generateKey(q), stored)
	return nil
}

func (c *MemoryCache) Close() error {
	c.store.Flush()
	return nil
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Name() string {
	return "none"
}

func (c *NoOpCache) Get(ctx context.Context, q models.FlightQuery) ([]models.RawFlight, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, q models.FlightQuery, flights []models.RawFlight) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

func generateKey(q models.FlightQuery) string {
	keyData := models.FlightQuery{
		FromIATA: strings.ToUpper(q.FromIATA),
		ToIATA:   strings.ToUpper(q.ToIATA),
		Date:     q.Date,
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return "flight:" + hex.EncodeToString(hash[:])
}
