package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"oeo-pos/internal/domain"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 15 * time.Minute

// setIfCurrent writes KEYS[1] only while KEYS[2] still holds ARGV[1]. A
// missing generation key counts as generation 0.
var setIfCurrent = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if (current or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// NewRedisCache creates a catalog cache. A zero ttl falls back to 15 minutes.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{
		client:  client,
		baseTTL: ttl,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, tenant domain.TenantID) ([]*domain.Product, error) {
	data, err := r.client.Get(ctx, cacheKey(tenant)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []*domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal catalog failed: %w", err)
	}

	return products, nil
}

func (r RedisCache) Generation(ctx context.Context, tenant domain.TenantID) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(tenant)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

func (r RedisCache) Set(ctx context.Context, tenant domain.TenantID, generation int64, products []*domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal catalog failed: %w", err)
	}

	// spread expiry so tenants do not all reload at once
	jitter := time.Duration(rand.Int63n(int64(r.baseTTL/5) + 1))
	ttl := r.baseTTL + jitter

	stored, err := setIfCurrent.Run(ctx, r.client,
		[]string{cacheKey(tenant), generationKey(tenant)},
		strconv.FormatInt(generation, 10), data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if stored == 0 {
		return ErrStaleGeneration
	}
	return nil
}

// Delete drops the cached list and bumps the generation so in-flight loads
// cannot write back what they read before.
func (r RedisCache) Delete(ctx context.Context, tenant domain.TenantID) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(tenant))
		pipe.Del(ctx, cacheKey(tenant))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(tenant domain.TenantID) string {
	return fmt.Sprintf("catalog:%s", tenant)
}

func generationKey(tenant domain.TenantID) string {
	return fmt.Sprintf("catalog:%s:gen", tenant)
}
