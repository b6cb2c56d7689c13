// Package session provides the distributed editor lock backing the
// single-editor-at-a-time rule. Locks expire via TTL so a crashed editor
// never wedges a document.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"draftly/internal/domain"
)

// DefaultLockTTL bounds how long an editor lock survives without renewal.
const DefaultLockTTL = 2 * time.Minute

// RedisLocker implements editor locks on Redis using SET NX with a TTL.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLocker connects to Redis and verifies the connection.
func NewRedisLocker(redisURL string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisLockerWithClient(client, ttl), nil
}

// NewRedisLockerWithClient creates a locker from an existing client.
func NewRedisLockerWithClient(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{
		client: client,
		prefix: "editor-lock:",
		ttl:    ttl,
	}
}

func (l *RedisLocker) key(docID string) string {
	return l.prefix + docID
}

// Acquire takes the editor lock for docID on behalf of ownerID. Re-acquiring
// a lock already held by the same owner renews its TTL. A lock held by
// someone else fails with a forbidden error.
func (l *RedisLocker) Acquire(ctx context.Context, docID, ownerID string) error {
	key := l.key(docID)

	ok, err := l.client.SetNX(ctx, key, ownerID, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire editor lock: %w", err)
	}
	if ok {
		return nil
	}

	holder, err := l.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("inspect editor lock: %w", err)
	}
	if holder == ownerID {
		// Same owner re-opening: renew.
		if err := l.client.Expire(ctx, key, l.ttl).Err(); err != nil {
			return fmt.Errorf("renew editor lock: %w", err)
		}
		return nil
	}
	return &domain.ForbiddenError{Message: "document is being edited by another user"}
}

// Release drops the lock if still held by ownerID; a lock taken over by
// someone else (after TTL expiry) is left alone.
func (l *RedisLocker) Release(ctx context.Context, docID, ownerID string) error {
	key := l.key(docID)

	holder, err := l.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect editor lock: %w", err)
	}
	if holder != ownerID {
		return nil
	}
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release editor lock: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// Ping verifies the Redis connection.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
