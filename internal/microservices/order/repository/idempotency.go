package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

// IdempotencyGuard reserves a client-supplied key for the duration of one checkout and
// then stores its result so retries replay instead of committing twice.
type IdempotencyGuard interface {
	// Reserve reports false when the key is already held or completed.
	Reserve(ctx context.Context, key string) (bool, error)
	// Result returns nil while the key is still reserved by an in-flight request.
	Result(ctx context.Context, key string) ([]byte, error)
	Complete(ctx context.Context, key string, result []byte) error
	Release(ctx context.Context, key string) error
}

type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func idemKey(key string) string { return "pos:idem:" + key }

func (g *RedisGuard) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, idemKey(key), pendingMarker, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Result(ctx context.Context, key string) ([]byte, error) {
	b, err := g.rdb.Get(ctx, idemKey(key)).Bytes()
	if errors.Is(err, redis.Nil) || string(b) == pendingMarker {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	return b, nil
}

func (g *RedisGuard) Complete(ctx context.Context, key string, result []byte) error {
	if err := g.rdb.Set(ctx, idemKey(key), result, g.ttl).Err(); err != nil {
		return fmt.Errorf("store idempotency result: %w", err)
	}
	return nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.rdb.Del(ctx, idemKey(key)).Err()
}

type MemoryGuard struct {
	mu   sync.Mutex
	keys map[string][]byte
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{keys: make(map[string][]byte)}
}

func (g *MemoryGuard) Reserve(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.keys[key]; ok {
		return false, nil
	}
	g.keys[key] = nil
	return true, nil
}

func (g *MemoryGuard) Result(_ context.Context, key string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.keys[key], nil
}

func (g *MemoryGuard) Complete(_ context.Context, key string, result []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys[key] = result
	return nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}
