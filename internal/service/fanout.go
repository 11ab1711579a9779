package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
	"github.com/d60-Lab/fanout-debugger/pkg/logger"
)

// ErrEventNotFound 重放的事件不存在
var ErrEventNotFound = errors.New("event not found")

const validationFailedMessage = "Event validation failed"

// FanoutResult 一次 fanout（或重放）的完整结果
type FanoutResult struct {
	Event         *model.Event          `json:"event"`
	Logs          []*model.FanoutLog    `json:"fanout_logs"`
	Notifications []*model.Notification `json:"notifications"`
}

// FanoutEngine 事件 -> 通知的扇出引擎，附带逐阶段 trace
//
// A run is strictly sequential and is not wrapped in a transaction. Any
// repository error aborts the run and is returned as is; whatever part of
// the trace was already written stays in place.
type FanoutEngine struct {
	events        repository.EventRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	logs          repository.FanoutLogRepository
	resolver      *RecipientResolver
	tracer        trace.Tracer
}

func NewFanoutEngine(
	events repository.EventRepository,
	users repository.UserRepository,
	followers repository.FollowerRepository,
	notifications repository.NotificationRepository,
	logs repository.FanoutLogRepository,
) *FanoutEngine {
	return &FanoutEngine{
		events:        events,
		users:         users,
		notifications: notifications,
		logs:          logs,
		resolver:      NewRecipientResolver(users, followers),
		tracer:        otel.Tracer("github.com/d60-Lab/fanout-debugger/internal/service"),
	}
}

// ProcessEvent 落地新事件并执行 fanout
func (f *FanoutEngine) ProcessEvent(ctx context.Context, in model.CreateEventInput) (*FanoutResult, error) {
	ctx, span := f.tracer.Start(ctx, "fanout.ProcessEvent")
	defer span.End()

	event, err := f.events.Create(ctx, in)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.String("event.id", event.ID))

	res, err := f.run(ctx, event, false)
	if err != nil {
		return nil, spanError(span, err)
	}
	return res, nil
}

// ReplayEvent 清理已有通知与日志后，对已存在的事件重新执行 fanout。
// Concurrent replays of the same event are not serialized here; callers go
// through a LockedReplayer for that.
func (f *FanoutEngine) ReplayEvent(ctx context.Context, eventID string) (*FanoutResult, error) {
	ctx, span := f.tracer.Start(ctx, "fanout.ReplayEvent", trace.WithAttributes(attribute.String("event.id", eventID)))
	defer span.End()

	event, err := f.events.GetByID(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, spanError(span, fmt.Errorf("%w: %s", ErrEventNotFound, eventID))
	}
	if err != nil {
		return nil, spanError(span, err)
	}

	cleared, err := f.events.ClearEventData(ctx, eventID)
	if err != nil {
		return nil, spanError(span, err)
	}
	logger.Ctx(ctx).Info("cleared event data before replay",
		zap.String("event_id", eventID),
		zap.Int64("notifications", cleared.Notifications),
		zap.Int64("logs", cleared.Logs),
	)

	res, err := f.run(ctx, event, true)
	if err != nil {
		return nil, spanError(span, err)
	}
	return res, nil
}

// run executes RECEIVED through COMPLETED/ERROR for a persisted event.
func (f *FanoutEngine) run(ctx context.Context, event *model.Event, isReplay bool) (*FanoutResult, error) {
	res := &FanoutResult{
		Event:         event,
		Logs:          []*model.FanoutLog{},
		Notifications: []*model.Notification{},
	}
	rec := newTraceRecorder(f.logs, event.ID, isReplay)
	emit := func(d model.StageData) error {
		l, err := rec.emit(ctx, d)
		if err != nil {
			return err
		}
		res.Logs = append(res.Logs, l)
		return nil
	}

	if err := emit(model.ReceivedData{
		ActorID:  event.ActorID,
		Type:     event.Type,
		TargetID: event.TargetID,
		Metadata: event.Metadata,
	}); err != nil {
		return nil, err
	}

	v := ValidateEvent(event)
	if err := emit(model.ValidatedData{IsValid: v.Valid, Errors: v.Errors}); err != nil {
		return nil, err
	}
	if !v.Valid {
		if err := emit(model.ErrorData{Message: validationFailedMessage, Errors: v.Errors}); err != nil {
			return nil, err
		}
		logger.Ctx(ctx).Info("fanout rejected event",
			zap.String("event_id", event.ID),
			zap.Bool("replay", isReplay),
			zap.Strings("errors", v.Errors),
		)
		return res, nil
	}

	recipients, err := f.resolver.Resolve(ctx, event)
	if err != nil {
		return nil, err
	}
	resolved := model.RecipientResolvedData{
		RecipientIDs:       make([]string, len(recipients)),
		RecipientUsernames: make([]string, len(recipients)),
		Rule:               RecipientRule(event.Type),
	}
	for i, r := range recipients {
		resolved.RecipientIDs[i] = r.ID
		resolved.RecipientUsernames[i] = r.Username
	}
	if err := emit(resolved); err != nil {
		return nil, err
	}

	actorName, err := f.actorName(ctx, event)
	if err != nil {
		return nil, err
	}

	for _, r := range recipients {
		// actor 不通知自己
		if r.ID == event.ActorID {
			continue
		}
		msg := NotificationMessage(event.Type, actorName)
		n, err := f.notifications.Create(ctx, r.ID, event.ID, msg)
		if err != nil {
			return nil, err
		}
		res.Notifications = append(res.Notifications, n)

		if err := emit(model.NotificationCreatedData{
			NotificationID: n.ID,
			UserID:         r.ID,
			Username:       r.Username,
			Message:        msg,
		}); err != nil {
			return nil, err
		}
	}

	if err := emit(model.CompletedData{
		TotalNotifications: len(res.Notifications),
		DurationMs:         time.Since(event.CreatedAt).Milliseconds(),
	}); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info("fanout completed",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Bool("replay", isReplay),
		zap.Int("recipients", len(recipients)),
		zap.Int("notifications", len(res.Notifications)),
	)
	return res, nil
}

// actorName 查不到 actor 时回退为 "Someone"，不终止运行
func (f *FanoutEngine) actorName(ctx context.Context, event *model.Event) (string, error) {
	actor, err := f.users.GetByID(ctx, event.ActorID)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Ctx(ctx).Warn("actor not found, using fallback name",
			zap.String("event_id", event.ID),
			zap.String("actor_id", event.ActorID),
		)
		return UnknownActorName, nil
	}
	if err != nil {
		return "", err
	}
	return actor.DisplayName(UnknownActorName), nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
