package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
	"github.com/d60-Lab/fanout-debugger/pkg/logger"
)

// ErrIllegalTransition 阶段顺序违反状态机
var ErrIllegalTransition = errors.New("illegal fanout stage transition")

// traceRecorder persists the stage log of one run. Each entry is written
// before the next stage starts, so an aborted run leaves a valid prefix.
type traceRecorder struct {
	logs     repository.FanoutLogRepository
	eventID  string
	isReplay bool

	last     model.Stage
	position int
}

func newTraceRecorder(logs repository.FanoutLogRepository, eventID string, isReplay bool) *traceRecorder {
	return &traceRecorder{logs: logs, eventID: eventID, isReplay: isReplay}
}

func (r *traceRecorder) emit(ctx context.Context, d model.StageData) (*model.FanoutLog, error) {
	stage := d.Stage()
	if r.last.Terminal() {
		return nil, fmt.Errorf("%w: trace already closed by %q", ErrIllegalTransition, r.last)
	}
	if !stage.CanFollow(r.last) {
		return nil, fmt.Errorf("%w: %q -> %q", ErrIllegalTransition, r.last, stage)
	}

	data := d.Fields()
	if r.isReplay {
		data["is_replay"] = true
	}

	l, err := r.logs.Create(ctx, r.eventID, stage, r.position, data)
	if err != nil {
		return nil, err
	}
	r.last = stage
	r.position++
	if stage.Terminal() {
		logger.Ctx(ctx).Debug("fanout trace closed",
			zap.String("event_id", r.eventID),
			zap.String("stage", string(stage)),
			zap.Int("logs", r.position),
			zap.Bool("replay", r.isReplay),
		)
	}
	return l, nil
}
