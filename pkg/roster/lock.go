package roster

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/arnavshah/roster-api-go/internal/errors"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "roster:apply:"

// ReleaseFunc gives a held lock back
type ReleaseFunc func(ctx context.Context) error

// RangeLock allows at most one in-flight apply per key
type RangeLock interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// LockKey identifies the department and date range an apply writes to
func LockKey(department, start, end string) string {
	return fmt.Sprintf("%s|%s|%s", department, start, end)
}

// MemoryRangeLock is a process-local RangeLock
type MemoryRangeLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryRangeLock creates an empty process-local lock table
func NewMemoryRangeLock() *MemoryRangeLock {
	return &MemoryRangeLock{held: make(map[string]struct{})}
}

// Acquire fails with ErrApplyInProgress when key is already held
func (l *MemoryRangeLock) Acquire(_ context.Context, key string) (ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, apperrors.ErrApplyInProgress
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}

// releaseScript deletes the key only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisRangeLock shares the apply lock between server instances
type RedisRangeLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRangeLock creates a lock whose entries expire after ttl
func NewRedisRangeLock(client *redis.Client, ttl time.Duration) *RedisRangeLock {
	return &RedisRangeLock{
		client: client,
		ttl:    ttl,
	}
}

// Acquire sets the key if absent; a crashed holder frees it after the ttl
func (l *RedisRangeLock) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	redisKey := lockKeyPrefix + key
	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire apply lock: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrApplyInProgress
	}

	return func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
		if err != nil {
			return fmt.Errorf("release apply lock: %w", err)
		}
		if deleted == 0 {
			return apperrors.ErrLockNotHeld
		}
		return nil
	}, nil
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
