package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/fanout-debugger/pkg/logger"
)

type replayJob struct {
	eventID string
	enqAt   time.Time
}

// ReplayOutcome 单个重放任务的结果
type ReplayOutcome struct {
	EventID       string
	Notifications int
	Err           error
	// Latency 入队到完成的耗时
	Latency time.Duration
}

// ReplayQueue 本地异步批量重放执行器：不同事件并行，同一事件由 Replayer 自身的锁串行
type ReplayQueue struct {
	replayer   Replayer
	ch         chan replayJob
	resultsCh  chan ReplayOutcome
	jobTimeout time.Duration

	// mu 保护 stopped；Enqueue 持读锁发送，停止后不再接收任务
	mu      sync.RWMutex
	stopped bool
}

func NewReplayQueue(replayer Replayer, queueSize int, jobTimeout time.Duration) *ReplayQueue {
	if queueSize <= 0 {
		queueSize = 1000
	}
	if jobTimeout <= 0 {
		jobTimeout = time.Minute
	}
	return &ReplayQueue{
		replayer:   replayer,
		ch:         make(chan replayJob, queueSize),
		resultsCh:  make(chan ReplayOutcome, 65536),
		jobTimeout: jobTimeout,
	}
}

// Start 启动 workers 个消费者；返回的停止函数会处理完已入队任务后返回。
// 全部 worker 退出后 Results() 通道被关闭。
func (q *ReplayQueue) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job := <-q.ch:
					q.process(job)
				case <-stopCh:
					for {
						select {
						case job := <-q.ch:
							q.process(job)
						default:
							return
						}
					}
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(q.resultsCh)
		close(done)
	}()

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() {
			q.mu.Lock()
			q.stopped = true
			q.mu.Unlock()
			close(stopCh)
		})
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *ReplayQueue) process(job replayJob) {
	ctx, cancel := context.WithTimeout(context.Background(), q.jobTimeout)
	defer cancel()

	out := ReplayOutcome{EventID: job.eventID}
	res, err := q.replayer.ReplayEvent(ctx, job.eventID)
	if err != nil {
		out.Err = err
	} else {
		out.Notifications = len(res.Notifications)
	}
	out.Latency = time.Since(job.enqAt)

	select {
	case q.resultsCh <- out:
	default:
		logger.Warn("replay results buffer full, drop outcome", zap.String("event_id", job.eventID))
	}
}

// Enqueue 非阻塞入队；队列满或已停止时返回 false
func (q *ReplayQueue) Enqueue(eventID string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		logger.Warn("replay queue stopped, reject job", zap.String("event_id", eventID))
		return false
	}
	select {
	case q.ch <- replayJob{eventID: eventID, enqAt: time.Now()}:
		return true
	default:
		logger.Warn("replay queue full, drop job", zap.String("event_id", eventID))
		return false
	}
}

// Results 返回任务结果的只读通道（每处理一条发送一次）。
func (q *ReplayQueue) Results() <-chan ReplayOutcome { return q.resultsCh }

// QueueLen 返回当前队列长度（采样值）。
func (q *ReplayQueue) QueueLen() int { return len(q.ch) }

// LogReplayOutcomes 消费结果通道直到关闭，逐条写日志
func LogReplayOutcomes(results <-chan ReplayOutcome) {
	for out := range results {
		if out.Err != nil {
			logger.Warn("queued replay failed",
				zap.String("event_id", out.EventID),
				zap.Duration("latency", out.Latency),
				zap.Error(out.Err),
			)
			continue
		}
		logger.Info("queued replay done",
			zap.String("event_id", out.EventID),
			zap.Int("notifications", out.Notifications),
			zap.Duration("latency", out.Latency),
		)
	}
}
