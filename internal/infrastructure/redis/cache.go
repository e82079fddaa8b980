package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-user-accounts/pkg/helpers"
)

// Cache stores JSON values in Redis.
type Cache struct {
	rdb goredis.Cmdable
}

func NewCache(rdb goredis.Cmdable) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	ok, err := helpers.RedisGetJSON(ctx, c.rdb, key, dest)
	if err != nil {
		return false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return ok, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := helpers.RedisSetJSON(ctx, c.rdb, key, value, ttl); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	if err := helpers.RedisDel(ctx, c.rdb, key); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}
