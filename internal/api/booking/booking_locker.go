package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serialises the lookup-then-upsert sequence of one session.
// The returned unlock func must be called exactly once after a successful Lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

var (
	_ Locker = NoopLocker{}
	_ Locker = (*LocalLocker)(nil)
	_ Locker = (*RedisLocker)(nil)
)

// NoopLocker takes no lock: two concurrent turns for one session both write
// and the last writer wins.
type NoopLocker struct{}

func (NoopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// LocalLocker is a per-key mutex for single-process deployments.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*lockSlot)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.release(key, slot)
		})
	}, nil
}

func (l *LocalLocker) release(key string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

// ErrLockTimeout is returned when a distributed lock cannot be taken before
// the context ends.
var ErrLockTimeout = errors.New("timed out waiting for booking lock")

// unlockScript deletes the key only if it still holds our token, so an
// expired lock taken over by another replica is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a SET NX lock shared by every replica.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		prefix: "concierge:booking-lock:",
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire booking lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even if the request context is already cancelled.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			_ = unlockScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
		})
	}, nil
}
