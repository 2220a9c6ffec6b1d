// Package lock provides a Redis lease used to keep catalog syncs on
// different instances from overlapping.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lease taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// ErrNotHeld is returned by release when the lease expired before it was
// released.
var ErrNotHeld = errors.New("lock: lease no longer held")

// RedisLocker hands out SET NX PX leases.
type RedisLocker struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisLocker returns a locker that namespaces keys under prefix.
func NewRedisLocker(rdb redis.Cmdable, prefix string) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

// TryLock attempts to take key for ttl without waiting.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	full := l.prefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", full, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.rdb, []string{full}, token).Int64()
		if err != nil {
			return fmt.Errorf("unlock %s: %w", full, err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}
	return release, true, nil
}
