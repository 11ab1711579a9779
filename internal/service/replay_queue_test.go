package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/pkg/logger"
)

func TestReplayQueue_ProcessesAllJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for _, target := range []*model.User{f.bob, f.carol, f.dave} {
		res, err := f.engine.ProcessEvent(ctx, model.CreateEventInput{ActorID: f.alice.ID, Type: model.EventTypeComment, TargetID: target.ID})
		require.NoError(t, err)
		ids = append(ids, res.Event.ID)
	}

	q := NewReplayQueue(NewLockedReplayer(f.engine, NewLocalEventLocker()), 10, time.Minute)
	for _, id := range ids {
		require.True(t, q.Enqueue(id))
	}
	require.True(t, q.Enqueue("missing"))
	assert.Equal(t, 4, q.QueueLen())

	stop := q.Start(2)
	got := map[string]ReplayOutcome{}
	timeout := time.After(5 * time.Second)
	for len(got) < 4 {
		select {
		case out := <-q.Results():
			got[out.EventID] = out
		case <-timeout:
			t.Fatalf("only %d of 4 outcomes", len(got))
		}
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, stop(stopCtx))

	assert.NoError(t, got[ids[0]].Err)
	assert.Equal(t, 3, got[ids[0]].Notifications)
	assert.Equal(t, 1, got[ids[1]].Notifications)
	assert.ErrorIs(t, got["missing"].Err, ErrEventNotFound)
	assert.Positive(t, got[ids[0]].Latency)
}

func TestReplayQueue_EnqueueWhenFull(t *testing.T) {
	q := NewReplayQueue(NewLockedReplayer(nil, NewLocalEventLocker()), 1, 0)
	assert.True(t, q.Enqueue("e1"))
	assert.False(t, q.Enqueue("e2"))
}

func TestReplayQueue_StopDrainsQueue(t *testing.T) {
	inner := &blockingReplayer{started: make(chan struct{}, 8), release: make(chan struct{})}
	close(inner.release)
	q := NewReplayQueue(inner, 8, time.Second)
	for _, id := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(id))
	}

	stop := q.Start(1)
	require.NoError(t, stop(context.Background()))
	assert.EqualValues(t, 3, inner.calls.Load())
	assert.Equal(t, 0, q.QueueLen())
}

func TestReplayQueue_RejectsAfterStop(t *testing.T) {
	inner := &blockingReplayer{started: make(chan struct{}, 8), release: make(chan struct{})}
	close(inner.release)
	q := NewReplayQueue(inner, 8, time.Second)

	stop := q.Start(1)
	require.NoError(t, stop(context.Background()))

	assert.False(t, q.Enqueue("x"))
	assert.Equal(t, 0, q.QueueLen())
	assert.EqualValues(t, 0, inner.calls.Load())

	// 结果通道在 worker 全部退出后关闭
	_, open := <-q.Results()
	assert.False(t, open)
}

// deadlineReplayer 记录任务 ctx 的剩余时间
type deadlineReplayer struct {
	remaining chan time.Duration
}

func (r *deadlineReplayer) ReplayEvent(ctx context.Context, eventID string) (*FanoutResult, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		r.remaining <- 0
	} else {
		r.remaining <- time.Until(deadline)
	}
	return &FanoutResult{Event: &model.Event{ID: eventID}}, nil
}

func TestReplayQueue_UsesConfiguredJobTimeout(t *testing.T) {
	inner := &deadlineReplayer{remaining: make(chan time.Duration, 1)}
	q := NewReplayQueue(inner, 1, 5*time.Second)
	require.True(t, q.Enqueue("e1"))

	stop := q.Start(1)
	require.NoError(t, stop(context.Background()))

	left := <-inner.remaining
	assert.Greater(t, left, 4*time.Second)
	assert.LessOrEqual(t, left, 5*time.Second)
}

func TestLogReplayOutcomes(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	results := make(chan ReplayOutcome, 2)
	results <- ReplayOutcome{EventID: "ok", Notifications: 3, Latency: time.Millisecond}
	results <- ReplayOutcome{EventID: "bad", Err: ErrEventNotFound}
	close(results)

	LogReplayOutcomes(results)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "queued replay done", entries[0].Message)
	assert.EqualValues(t, 3, entries[0].ContextMap()["notifications"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "bad", entries[1].ContextMap()["event_id"])
}
