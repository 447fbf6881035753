package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/pricing"
	"github.com/yeremiapane/gamezone-pos/utils"
)

// poolFrameKey is shared by every Pool and Frame device: they are one physical table.
const poolFrameKey = "pool-frame"

// DeviceLocker serialises session opens per device.
type DeviceLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// DeviceLockKey returns the lock key guarding device.
func DeviceLockKey(device models.Device) string {
	if pricing.SharesPoolFrame(pricing.NormalizeDeviceType(device.Type)) {
		return poolFrameKey
	}
	return fmt.Sprintf("device:%d", device.ID)
}

// MemoryLocker is an in-process DeviceLocker.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

func (l *MemoryLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to lock %s: %w", key, ctx.Err())
	}
}

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker shares device locks between several API instances.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client: client,
		prefix: "gamezone:lock:",
		ttl:    ttl,
		retry:  50 * time.Millisecond,
	}
}

var errLockBusy = errors.New("lock busy")

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to lock %s: %w (%v)", key, errLockBusy, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	return func() {
		// context baru: request context mungkin sudah habis saat unlock
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			utils.ErrorLogger.WithError(err).WithField("key", redisKey).Error("redis unlock failed")
		}
	}, nil
}
