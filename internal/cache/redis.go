package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/furstore/internal/domain"
)

func NewRedisSessionCache(client redis.UniversalClient, ttl time.Duration) *RedisSessionCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionCache{
		client:  client,
		baseTTL: ttl,
	}
}

type RedisSessionCache struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

func (r RedisSessionCache) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &s, nil
}

func (r RedisSessionCache) Set(ctx context.Context, s *domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, withJitter(r.baseTTL)).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisSessionCache) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func NewRedisProductCache(client redis.UniversalClient, ttl time.Duration) *RedisProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisProductCache{client: client, ttl: ttl}
}

// RedisProductCache keeps cart snapshots of catalog products for a short time.
type RedisProductCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func (r RedisProductCache) Get(ctx context.Context, productID int64) (domain.ProductSnapshot, error) {
	data, err := r.client.Get(ctx, productKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ProductSnapshot{}, ErrCacheMiss
	}
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("redis get failed: %w", err)
	}
	var p domain.ProductSnapshot
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return p, nil
}

func (r RedisProductCache) Set(ctx context.Context, p domain.ProductSnapshot) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}
	if err := r.client.Set(ctx, productKey(p.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// withJitter spreads expiries over an extra 0-4 minutes so sessions created
// together do not expire together.
func withJitter(ttl time.Duration) time.Duration {
	return ttl + time.Duration(rand.IntN(5))*time.Minute
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func productKey(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}
