package handler

import (
	"context"
	"time"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/service"
)

// EventProcessor 创建事件并执行 fanout
type EventProcessor interface {
	ProcessEvent(ctx context.Context, in model.CreateEventInput) (*service.FanoutResult, error)
}

// HealthCheck 单项依赖探活
type HealthCheck func(ctx context.Context) error

// Options 构造 Handler 所需依赖
type Options struct {
	Processor    EventProcessor
	Replayer     service.Replayer
	ReplayQueue  *service.ReplayQueue
	EventQuery   service.EventQueryService
	UserService  service.UserService
	RelService   service.RelationshipService
	HealthChecks map[string]HealthCheck
}

// Handler 全部 HTTP 处理器
type Handler struct {
	processor    EventProcessor
	replayer     service.Replayer
	replayQueue  *service.ReplayQueue
	eventQuery   service.EventQueryService
	userService  service.UserService
	relService   service.RelationshipService
	healthChecks map[string]HealthCheck
	startedAt    time.Time
}

func NewHandler(opts Options) *Handler {
	return &Handler{
		processor:    opts.Processor,
		replayer:     opts.Replayer,
		replayQueue:  opts.ReplayQueue,
		eventQuery:   opts.EventQuery,
		userService:  opts.UserService,
		relService:   opts.RelService,
		healthChecks: opts.HealthChecks,
		startedAt:    time.Now(),
	}
}
