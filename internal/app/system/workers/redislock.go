// internal/app/system/workers/redislock.go
package workers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockKey is the Redis key guarding the trash sweep.
const DefaultLockKey = "stratadrive:lock:trash-sweep"

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a single-holder lease in Redis (SET NX with a TTL). The TTL
// bounds how long a crashed holder blocks other replicas.
type RedisLock struct {
	rdb   redis.UniversalClient
	key   string
	ttl   time.Duration
	token string
}

// NewRedisLock returns a lock on key. An empty key uses DefaultLockKey.
func NewRedisLock(rdb redis.UniversalClient, key string, ttl time.Duration) *RedisLock {
	if key == "" {
		key = DefaultLockKey
	}
	return &RedisLock{rdb: rdb, key: key, ttl: ttl, token: uuid.NewString()}
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

func (l *RedisLock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err()
}
