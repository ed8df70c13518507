package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// defaultOperationTimeout is the timeout for individual Redis operations
	defaultOperationTimeout = 5 * time.Second

	// KeyPrefix namespaces every key written by the service.
	KeyPrefix = "coursehub:"
)

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache: key not found")

// Cache is a namespaced JSON key-value store. It talks to Redis when enabled
// and keeps entries in process memory otherwise, so drafts and carts still
// work on a single instance without Redis.
type Cache struct {
	client  *redis.Client
	memory  *memoryStore
	enabled bool
	prefix  string
}

func NewCache(addr string, enable bool) (*Cache, error) {
	if !enable {
		return NewMemoryCache(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client:  client,
		enabled: true,
		prefix:  KeyPrefix,
	}, nil
}

// NewMemoryCache returns a cache that never leaves the process.
func NewMemoryCache() *Cache {
	return &Cache{memory: newMemoryStore(), prefix: KeyPrefix}
}

// Enabled reports whether the cache is backed by Redis.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

func (c *Cache) key(key string) string {
	return c.prefix + key
}

// operationContext creates a context with timeout for Redis operations
func (c *Cache) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, defaultOperationTimeout)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if !c.enabled {
		c.memory.set(c.key(key), jsonData, expiration)
		return nil
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	return c.client.Set(ctx, c.key(key), jsonData, expiration).Err()
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.enabled {
		data, ok := c.memory.get(c.key(key))
		if !ok {
			return ErrMiss
		}
		return json.Unmarshal(data, dest)
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	} else if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.enabled {
		c.memory.delete(c.key(key))
		return nil
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	return c.client.Del(ctx, c.key(key)).Err()
}

// DeletePattern removes every key matching a glob pattern relative to the
// namespace.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	if !c.enabled {
		return c.memory.deletePattern(c.key(pattern))
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	iter := c.client.Scan(ctx, 0, c.key(pattern), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.enabled {
		_, ok := c.memory.get(c.key(key))
		return ok, nil
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	val, err := c.client.Exists(ctx, c.key(key)).Result()
	return val > 0, err
}

func (c *Cache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if !c.enabled {
		c.memory.expire(c.key(key), expiration)
		return nil
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	return c.client.Expire(ctx, c.key(key), expiration).Err()
}

// Ping checks the Redis connection; the memory store is always healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	ctx, cancel := c.operationContext(ctx)
	defer cancel()

	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if !c.enabled {
		return nil
	}
	return c.client.Close()
}
