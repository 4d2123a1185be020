// Package cache holds the Redis-backed read cache for session carts.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexssio/storefront/internal/cart"
)

const (
	maxJitter = 5
	// generations outlive any cart entry so a reset cannot collide with a pending fill
	generationTTL = 24 * time.Hour
)

// fillScript writes the cart only while the session generation still equals
// the one observed before the store was read.
var fillScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '0') ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

type RedisCache struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

var _ cart.Cache = (*RedisCache)(nil)

// NewRedisCache caches carts for ttl plus up to a few minutes of jitter so
// entries written together do not expire together.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: ttl,
	}
}

func (r *RedisCache) Get(ctx context.Context, session cart.Session) ([]cart.LineItem, int64, error) {
	vals, err := r.client.MGet(ctx, cacheKey(session), generationKey(session)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis get failed: %w", err)
	}

	var gen int64
	if s, ok := vals[1].(string); ok {
		if gen, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, 0, fmt.Errorf("parse cart generation: %w", err)
		}
	}

	data, ok := vals[0].(string)
	if !ok {
		return nil, gen, cart.ErrCacheMiss
	}
	var items []cart.LineItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, 0, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return items, gen, nil
}

func (r *RedisCache) Set(ctx context.Context, session cart.Session, items []cart.LineItem, generation int64) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.baseTTL + time.Duration(rand.Intn(maxJitter))*time.Minute
	written, err := fillScript.Run(ctx, r.client,
		[]string{cacheKey(session), generationKey(session)},
		generation, data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if written == 0 {
		return cart.ErrStaleFill
	}
	return nil
}

// Delete drops the cached cart and advances the session generation in one
// transaction, which turns away any fill that read the store before it.
func (r *RedisCache) Delete(ctx context.Context, session cart.Session) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, cacheKey(session))
		pipe.Incr(ctx, generationKey(session))
		pipe.Expire(ctx, generationKey(session), generationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Both keys share a hash tag so the fill script stays on one cluster slot.
func cacheKey(session cart.Session) string {
	return fmt.Sprintf("cart:{%s}", session)
}

func generationKey(session cart.Session) string {
	return fmt.Sprintf("cart:{%s}:gen", session)
}
