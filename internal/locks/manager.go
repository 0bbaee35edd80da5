package locks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotHeld occurs when releasing or extending a lock not held by this instance
	ErrLockNotHeld = errors.New("lock not held by this instance")
	// ErrLockAlreadyHeld occurs when the lock is held by another instance
	ErrLockAlreadyHeld = errors.New("lock already held by another instance")
)

// DefaultLockTTL is the default time-to-live for locks
const DefaultLockTTL = 30 * time.Second

// Manager handles distributed locking using Redis. The clock scheduler
// uses it to make sure only one instance drives the tournament clocks.
type Manager struct {
	redis      *redis.Client
	instanceID string
}

// Lock represents a held distributed lock
type Lock struct {
	key        string
	value      string
	manager    *Manager
	acquiredAt time.Time
}

// NewManager creates a new lock manager instance
func NewManager(redisClient *redis.Client) *Manager {
	return &Manager{
		redis:      redisClient,
		instanceID: uuid.New().String(),
	}
}

// TryAcquire attempts to acquire a lock without waiting. It returns
// ErrLockAlreadyHeld when another instance owns the key.
func (m *Manager) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	if ttl == 0 {
		ttl = DefaultLockTTL
	}

	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := fmt.Sprintf("%s:%s", m.instanceID, uuid.New().String())

	acquired, err := m.redis.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if !acquired {
		return nil, ErrLockAlreadyHeld
	}

	log.Printf("[LOCK] Acquired %s (instance %s)", lockKey, m.instanceID)
	return &Lock{
		key:        lockKey,
		value:      lockValue,
		manager:    m,
		acquiredAt: time.Now(),
	}, nil
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release releases the lock if it is still held by this instance.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil {
		return ErrLockNotHeld
	}

	result, err := releaseScript.Run(ctx, l.manager.redis, []string{l.key}, l.value).Result()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if result == int64(0) {
		return ErrLockNotHeld
	}

	log.Printf("[LOCK] Released %s (held for %v)", l.key, time.Since(l.acquiredAt))
	return nil
}

var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("expire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Extend resets the lock TTL if it is still held by this instance. The
// scheduler calls this on a heartbeat so a live leader never loses the
// lock, while a crashed one lets it expire.
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) error {
	if l == nil {
		return ErrLockNotHeld
	}

	result, err := extendScript.Run(ctx, l.manager.redis, []string{l.key}, l.value, int(ttl.Seconds())).Result()
	if err != nil {
		return fmt.Errorf("failed to extend lock: %w", err)
	}
	if result == int64(0) {
		return ErrLockNotHeld
	}
	return nil
}
