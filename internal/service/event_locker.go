package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/fanout-debugger/pkg/logger"
)

var (
	// ErrReplayInProgress 同一事件已有重放在执行
	ErrReplayInProgress = errors.New("replay already in progress for event")
	// ErrLockLost 持有期间租约续期失败
	ErrLockLost = errors.New("replay lock lost")
)

// EventLocker grants at most one active replay per event id.
type EventLocker interface {
	// TryLock 不阻塞；锁被占用时返回 ErrReplayInProgress。
	// 返回的 ctx 在 unlock 或锁丢失时取消，持锁期间的工作应使用它。
	TryLock(ctx context.Context, eventID string) (held context.Context, unlock func(), err error)
}

// RedisEventLocker 基于 SET NX PX 的分布式锁，持有期间按 ttl/3 续期，释放与续期都校验 token
type RedisEventLocker struct {
	client     redis.UniversalClient
	ttl        time.Duration
	renewEvery time.Duration
	prefix     string
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

func NewRedisEventLocker(client redis.UniversalClient, ttl time.Duration) *RedisEventLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	renewEvery := ttl / 3
	if renewEvery <= 0 {
		renewEvery = ttl
	}
	return &RedisEventLocker{client: client, ttl: ttl, renewEvery: renewEvery, prefix: "fanout:replay-lock:"}
}

func (l *RedisEventLocker) TryLock(ctx context.Context, eventID string) (context.Context, func(), error) {
	key := l.prefix + eventID
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("acquire replay lock: %w", err)
	}
	if !ok {
		return nil, nil, ErrReplayInProgress
	}

	held, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.keepAlive(key, token, eventID, stop, cancel)
	}()

	var once sync.Once
	return held, func() {
		once.Do(func() {
			close(stop)
			<-done
			cancel(nil)
			// 调用方 ctx 可能已取消，释放使用独立超时
			rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer rcancel()
			if err := releaseScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil {
				logger.Warn("release replay lock failed", zap.String("event_id", eventID), zap.Error(err))
			}
		})
	}, nil
}

// keepAlive 续期直到 stop 关闭；续期失败时以 ErrLockLost 取消持锁 ctx
func (l *RedisEventLocker) keepAlive(key, token, eventID string, stop <-chan struct{}, cancel context.CancelCauseFunc) {
	ticker := time.NewTicker(l.renewEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rctx, rcancel := context.WithTimeout(context.Background(), l.renewEvery)
			n, err := renewScript.Run(rctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
			rcancel()
			if err == nil && n == 1 {
				continue
			}
			logger.Warn("replay lock lost, aborting run",
				zap.String("event_id", eventID),
				zap.Error(err),
			)
			cancel(ErrLockLost)
			return
		}
	}
}

// LocalEventLocker 进程内实现，未启用 Redis 时使用
type LocalEventLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalEventLocker() *LocalEventLocker {
	return &LocalEventLocker{held: make(map[string]struct{})}
}

func (l *LocalEventLocker) TryLock(ctx context.Context, eventID string) (context.Context, func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[eventID]; busy {
		return nil, nil, ErrReplayInProgress
	}
	l.held[eventID] = struct{}{}

	held, cancel := context.WithCancel(ctx)
	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel()
			l.mu.Lock()
			delete(l.held, eventID)
			l.mu.Unlock()
		})
	}, nil
}

// Replayer 重放单个事件
type Replayer interface {
	ReplayEvent(ctx context.Context, eventID string) (*FanoutResult, error)
}

// LockedReplayer serializes replays per event id in front of a Replayer. The
// run uses the lock's context, so it aborts if the lease is lost.
type LockedReplayer struct {
	next   Replayer
	locker EventLocker
}

func NewLockedReplayer(next Replayer, locker EventLocker) *LockedReplayer {
	return &LockedReplayer{next: next, locker: locker}
}

func (r *LockedReplayer) ReplayEvent(ctx context.Context, eventID string) (*FanoutResult, error) {
	held, unlock, err := r.locker.TryLock(ctx, eventID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	res, err := r.next.ReplayEvent(held, eventID)
	if err != nil && errors.Is(context.Cause(held), ErrLockLost) {
		return nil, fmt.Errorf("%w: %w", ErrLockLost, err)
	}
	return res, err
}
