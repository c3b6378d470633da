package lease_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/facilitator/pkg/lease"
	"github.com/aretw0/facilitator/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SerializesSameKey(t *testing.T) {
	manager := lease.NewManager()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, "rt-1", func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					old := atomic.LoadInt32(&maxInside)
					if n <= old || atomic.CompareAndSwapInt32(&maxInside, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond) // Simulate IO
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, manager.Active())
}

func TestManager_DistinctKeysDoNotBlock(t *testing.T) {
	manager := lease.NewManager()
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = manager.WithLock(ctx, "rt-a", func(ctx context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := manager.WithLock(ctx, "rt-b", func(ctx context.Context) error { return nil })
	close(done)
	assert.NoError(t, err)
}

func TestManager_PropagatesError(t *testing.T) {
	manager := lease.NewManager()
	boom := errors.New("boom")

	err := manager.WithLock(context.Background(), "rt-1", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, manager.Active())
}

type fakeLocker struct {
	mu       sync.Mutex
	ttls     []time.Duration
	unlocked int
	err      error
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.ttls = append(f.ttls, ttl)
	return func(ctx context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &fakeLocker{}
	manager := lease.NewManager(lease.WithLocker(locker), lease.WithTTL(5*time.Second))

	require.NoError(t, manager.WithLock(context.Background(), "rt-1", func(ctx context.Context) error { return nil }))

	assert.Equal(t, []time.Duration{5 * time.Second}, locker.ttls)
	assert.Equal(t, 1, locker.unlocked)
}

func TestManager_DefaultTTL(t *testing.T) {
	locker := &fakeLocker{}
	manager := lease.NewManager(lease.WithLocker(locker), lease.WithTTL(0))

	require.NoError(t, manager.WithLock(context.Background(), "rt-1", func(ctx context.Context) error { return nil }))
	assert.Equal(t, []time.Duration{lease.DefaultTTL}, locker.ttls)
}

func TestManager_DistributedLockFailure(t *testing.T) {
	locker := &fakeLocker{err: context.DeadlineExceeded}
	manager := lease.NewManager(lease.WithLocker(locker))

	called := false
	err := manager.WithLock(context.Background(), "rt-1", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
	assert.Equal(t, 0, manager.Active())
}
