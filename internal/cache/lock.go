package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 30 * time.Second

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisSubmitLock struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisSubmitLock(client redis.UniversalClient, ttl time.Duration) *RedisSubmitLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisSubmitLock{client: client, ttl: ttl}
}

func (l *RedisSubmitLock) Acquire(ctx context.Context, sessionID string) (func(), error) {
	key := lockKey(sessionID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
		})
	}, nil
}

// MemorySubmitLock is the single process variant of RedisSubmitLock.
type MemorySubmitLock struct {
	mu    sync.Mutex
	held  map[string]lease
	ttl   time.Duration
	clock func() time.Time
}

type lease struct {
	token   string
	expires time.Time
}

func NewMemorySubmitLock(ttl time.Duration) *MemorySubmitLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &MemorySubmitLock{held: make(map[string]lease), ttl: ttl, clock: time.Now}
}

func (l *MemorySubmitLock) Acquire(_ context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if cur, ok := l.held[sessionID]; ok && now.Before(cur.expires) {
		return nil, ErrLocked
	}
	token := uuid.NewString()
	l.held[sessionID] = lease{token: token, expires: now.Add(l.ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if cur, ok := l.held[sessionID]; ok && cur.token == token {
				delete(l.held, sessionID)
			}
		})
	}, nil
}

func lockKey(sessionID string) string {
	return fmt.Sprintf("lock:submit:%s", sessionID)
}
