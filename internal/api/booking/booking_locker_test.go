package booking

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExcludesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "hotel-42/guest-7")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxInside)
	assert.Empty(t, locker.slots, "slots are released once idle")
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocalLocker()
	unlockA, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlockB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker()
	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // second call is a no-op

	again, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
	assert.Empty(t, locker.slots)
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	locker := NewRedisLocker(client, time.Second)
	key := "test-" + t.Name()

	unlock, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, key)
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	exists, err := client.Exists(context.Background(), locker.prefix+key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	again, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)
	again()
}
