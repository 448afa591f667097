package repository

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "bsc:revoked:"

// TokenDenylist records revoked token ids until the tokens would have
// expired anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisTokenDenylist struct {
	client *redis.Client
}

// NewRedisTokenDenylist stores revocations as keys whose TTL is the token's
// remaining lifetime, so Redis performs the cleanup.
func NewRedisTokenDenylist(client *redis.Client) TokenDenylist {
	return &redisTokenDenylist{client: client}
}

func (d *redisTokenDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistKeyPrefix+tokenID, 1, ttl).Err()
}

func (d *redisTokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type memoryTokenDenylist struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]time.Time
}

// NewMemoryTokenDenylist returns a process-local denylist. Expired entries
// are dropped lazily on access.
func NewMemoryTokenDenylist(now func() time.Time) TokenDenylist {
	if now == nil {
		now = time.Now
	}
	return &memoryTokenDenylist{now: now, entries: make(map[string]time.Time)}
}

func (d *memoryTokenDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.purge()
	if !expiresAt.After(d.now()) {
		return nil
	}
	d.entries[tokenID] = expiresAt
	return nil
}

func (d *memoryTokenDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.purge()
	_, ok := d.entries[tokenID]
	return ok, nil
}

func (d *memoryTokenDenylist) purge() {
	now := d.now()
	for id, exp := range d.entries {
		if !exp.After(now) {
			delete(d.entries, id)
		}
	}
}
