package repository

import (
	"context"
	"hunt_backend/internal/util"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// unlockScript deletes the lock only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only if it still holds our token.
var refreshScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// SweepLock keeps sweeps on different instances from overlapping.
type SweepLock struct {
	Redis *redis.Client
	Key   string
	TTL   time.Duration
}

func NewSweepLock(rdb *redis.Client, ttl time.Duration) *SweepLock {
	return &SweepLock{Redis: rdb, Key: "hunt:sweep:lock", TTL: ttl}
}

// TryLock returns the lock token when the lock was acquired.
func (l *SweepLock) TryLock(ctx context.Context) (string, bool, error) {
	token := uuid.New().String()
	ok, err := l.Redis.SetNX(ctx, l.Key, token, l.TTL).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (l *SweepLock) Unlock(ctx context.Context, token string) error {
	return unlockScript.Run(ctx, l.Redis, []string{l.Key}, token).Err()
}

// Refresh resets the TTL of a held lock. It returns util.ErrSweepLockLost
// when the lock expired or another instance took it over.
func (l *SweepLock) Refresh(ctx context.Context, token string) error {
	n, err := refreshScript.Run(ctx, l.Redis, []string{l.Key}, token, l.TTL.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return util.ErrSweepLockLost
	}
	return nil
}
