package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
)

// EventTrace 事件及其当前的 fanout 日志与通知
type EventTrace struct {
	Event         *model.Event          `json:"event"`
	FanoutLogs    []*model.FanoutLog    `json:"fanout_logs"`
	Notifications []*model.Notification `json:"notifications"`
}

// EventQueryService 事件读侧（调试控制台使用）
type EventQueryService interface {
	ListEvents(ctx context.Context, page, pageSize int) ([]*model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	GetTrace(ctx context.Context, id string) (*EventTrace, error)
}

type eventQueryService struct {
	events        repository.EventRepository
	logs          repository.FanoutLogRepository
	notifications repository.NotificationRepository
}

func NewEventQueryService(
	events repository.EventRepository,
	logs repository.FanoutLogRepository,
	notifications repository.NotificationRepository,
) EventQueryService {
	return &eventQueryService{events: events, logs: logs, notifications: notifications}
}

func (s *eventQueryService) ListEvents(ctx context.Context, page, pageSize int) ([]*model.Event, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return s.events.List(ctx, (page-1)*pageSize, pageSize)
}

func (s *eventQueryService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	return e, err
}

func (s *eventQueryService) GetTrace(ctx context.Context, id string) (*EventTrace, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	logs, err := s.logs.ListByEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	notifications, err := s.notifications.ListByEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EventTrace{Event: e, FanoutLogs: logs, Notifications: notifications}, nil
}
