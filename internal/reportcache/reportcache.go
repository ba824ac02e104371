// Package reportcache keeps the last run report of each entity in Redis and
// provides a cross-process run lock per entity.
package reportcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gyeh/refload/internal/model"
)

const keyPrefix = "refload:"

// ErrLocked is returned by Lock when another run holds the entity lock.
var ErrLocked = errors.New("another run is in progress")

// Cache wraps a Redis client.
type Cache struct {
	rdb       *redis.Client
	reportTTL time.Duration
	lockTTL   time.Duration
}

// Connect parses a redis:// URL and verifies the connection.
func Connect(ctx context.Context, url string, reportTTL, lockTTL time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return New(rdb, reportTTL, lockTTL), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, reportTTL, lockTTL time.Duration) *Cache {
	return &Cache{rdb: rdb, reportTTL: reportTTL, lockTTL: lockTTL}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

func reportKey(entity string) string { return keyPrefix + "report:" + entity }
func lockKey(entity string) string   { return keyPrefix + "lock:" + entity }

// PutReport stores r as the latest report of its entity.
func (c *Cache) PutReport(ctx context.Context, r *model.RunReport) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.rdb.Set(ctx, reportKey(r.Entity), b, c.reportTTL).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Report returns the cached latest report of entity, or nil when none.
func (c *Cache) Report(ctx context.Context, entity model.EntityType) (*model.RunReport, error) {
	b, err := c.rdb.Get(ctx, reportKey(entity.Name)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	var r model.RunReport
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// release deletes the lock only if it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock acquires the run lock of entity for the lock TTL. The returned func
// releases it; it is safe to call after the lock has expired.
func (c *Cache) Lock(ctx context.Context, entity model.EntityType) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, lockKey(entity.Name), token, c.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", entity, ErrLocked)
	}
	return func(ctx context.Context) error {
		if err := release.Run(ctx, c.rdb, []string{lockKey(entity.Name)}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("release lock: %w", err)
		}
		return nil
	}, nil
}
