package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

func newRedisLocker(t *testing.T, ttl time.Duration) (*RedisEventLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisEventLocker(client, ttl), mr
}

func TestRedisEventLocker(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)
	ctx := context.Background()

	held, unlock, err := l.TryLock(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("fanout:replay-lock:e1"))
	assert.NoError(t, held.Err())

	_, _, err = l.TryLock(ctx, "e1")
	assert.ErrorIs(t, err, ErrReplayInProgress)

	// 不同事件互不影响
	_, unlock2, err := l.TryLock(ctx, "e2")
	require.NoError(t, err)
	unlock2()

	unlock()
	assert.False(t, mr.Exists("fanout:replay-lock:e1"))
	assert.Error(t, held.Err())

	_, unlock, err = l.TryLock(ctx, "e1")
	require.NoError(t, err)
	unlock()
}

func TestRedisEventLocker_RenewsLeaseWhileHeld(t *testing.T) {
	l, mr := newRedisLocker(t, 300*time.Millisecond)
	l.renewEvery = 20 * time.Millisecond
	ctx := context.Background()
	key := "fanout:replay-lock:e1"

	held, unlock, err := l.TryLock(ctx, "e1")
	require.NoError(t, err)
	defer unlock()

	// 持有时间超过 ttl，每段之间等待续期
	for i := 0; i < 5; i++ {
		mr.FastForward(200 * time.Millisecond)
		require.True(t, mr.Exists(key), "lease expired after %d steps", i+1)
		require.Eventually(t, func() bool { return mr.TTL(key) > 250*time.Millisecond }, time.Second, 5*time.Millisecond)
	}

	_, _, err = l.TryLock(ctx, "e1")
	assert.ErrorIs(t, err, ErrReplayInProgress)
	assert.NoError(t, held.Err())
}

func TestRedisEventLocker_LostLeaseCancelsHolder(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)
	l.renewEvery = 10 * time.Millisecond

	held, unlock, err := l.TryLock(context.Background(), "e1")
	require.NoError(t, err)
	defer unlock()

	// 其他进程接管了 key
	mr.Set("fanout:replay-lock:e1", "someone-else")

	select {
	case <-held.Done():
		assert.ErrorIs(t, context.Cause(held), ErrLockLost)
	case <-time.After(time.Second):
		t.Fatal("holder context not cancelled after lease loss")
	}
}

func TestRedisEventLocker_ExpiredLockIsNotReleasedByOldOwner(t *testing.T) {
	l, mr := newRedisLocker(t, time.Second)
	l.renewEvery = time.Hour
	ctx := context.Background()

	_, stale, err := l.TryLock(ctx, "e1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, fresh, err := l.TryLock(ctx, "e1")
	require.NoError(t, err)

	// 过期的持有者释放时 token 不匹配
	stale()
	assert.True(t, mr.Exists("fanout:replay-lock:e1"))

	fresh()
	assert.False(t, mr.Exists("fanout:replay-lock:e1"))
}

func TestLocalEventLocker(t *testing.T) {
	l := NewLocalEventLocker()
	ctx := context.Background()

	held, unlock, err := l.TryLock(ctx, "e1")
	require.NoError(t, err)
	_, _, err = l.TryLock(ctx, "e1")
	assert.ErrorIs(t, err, ErrReplayInProgress)

	unlock()
	unlock()
	assert.Error(t, held.Err())

	_, unlock, err = l.TryLock(ctx, "e1")
	require.NoError(t, err)
	unlock()
}

// blockingReplayer 在 release 关闭前阻塞
type blockingReplayer struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (r *blockingReplayer) ReplayEvent(ctx context.Context, eventID string) (*FanoutResult, error) {
	r.calls.Add(1)
	r.started <- struct{}{}
	<-r.release
	return &FanoutResult{Event: &model.Event{ID: eventID}}, nil
}

func TestLockedReplayer_RejectsConcurrentReplayOfSameEvent(t *testing.T) {
	inner := &blockingReplayer{started: make(chan struct{}, 1), release: make(chan struct{})}
	r := NewLockedReplayer(inner, NewLocalEventLocker())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := r.ReplayEvent(ctx, "e1")
		assert.NoError(t, err)
	}()
	<-inner.started

	_, err := r.ReplayEvent(ctx, "e1")
	assert.ErrorIs(t, err, ErrReplayInProgress)

	close(inner.release)
	wg.Wait()
	assert.EqualValues(t, 1, inner.calls.Load())

	// 锁已释放
	go func() { <-inner.started }()
	_, err = r.ReplayEvent(ctx, "e1")
	assert.NoError(t, err)
}

// lostLocker 交出的 ctx 在运行开始后被以 ErrLockLost 取消
type lostLocker struct{}

func (lostLocker) TryLock(ctx context.Context, _ string) (context.Context, func(), error) {
	held, cancel := context.WithCancelCause(ctx)
	cancel(ErrLockLost)
	return held, func() {}, nil
}

type ctxReplayer struct{}

func (ctxReplayer) ReplayEvent(ctx context.Context, _ string) (*FanoutResult, error) {
	return nil, ctx.Err()
}

func TestLockedReplayer_ReportsLostLock(t *testing.T) {
	r := NewLockedReplayer(ctxReplayer{}, lostLocker{})

	_, err := r.ReplayEvent(context.Background(), "e1")
	assert.ErrorIs(t, err, ErrLockLost)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLockedReplayer_WithEngine(t *testing.T) {
	f := newFixture(t)
	l, _ := newRedisLocker(t, time.Minute)
	r := NewLockedReplayer(f.engine, l)
	ctx := context.Background()

	orig, err := f.engine.ProcessEvent(ctx, model.CreateEventInput{ActorID: f.alice.ID, Type: model.EventTypeLike, TargetID: f.bob.ID})
	require.NoError(t, err)

	res, err := r.ReplayEvent(ctx, orig.Event.ID)
	require.NoError(t, err)
	assert.Len(t, res.Notifications, 1)

	_, err = r.ReplayEvent(ctx, "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}
