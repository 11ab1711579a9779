package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
	"github.com/d60-Lab/fanout-debugger/internal/testutil"
	"github.com/d60-Lab/fanout-debugger/pkg/logger"
)

func TestTraceRecorder_RejectsIllegalTransition(t *testing.T) {
	db := testutil.NewDB(t)
	logs := repository.NewFanoutLogRepository(db)
	rec := newTraceRecorder(logs, "e1", false)
	ctx := context.Background()

	_, err := rec.emit(ctx, model.ValidatedData{IsValid: true})
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = rec.emit(ctx, model.ReceivedData{})
	require.NoError(t, err)
	_, err = rec.emit(ctx, model.ValidatedData{IsValid: false, Errors: []string{"x"}})
	require.NoError(t, err)
	_, err = rec.emit(ctx, model.CompletedData{})
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = rec.emit(ctx, model.ErrorData{Message: "x"})
	require.NoError(t, err)
	_, err = rec.emit(ctx, model.ErrorData{Message: "again"})
	assert.ErrorIs(t, err, ErrIllegalTransition)

	stored, err := logs.ListByEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, []model.Stage{model.StageReceived, model.StageValidated, model.StageError}, stagesOf(stored))
}

func TestTraceRecorder_ReplayFlag(t *testing.T) {
	db := testutil.NewDB(t)
	rec := newTraceRecorder(repository.NewFanoutLogRepository(db), "e1", true)

	l, err := rec.emit(context.Background(), model.ReceivedData{ActorID: "a"})
	require.NoError(t, err)
	assert.Equal(t, true, l.Data["is_replay"])
	assert.Equal(t, 0, l.Position)
}

func TestTraceRecorder_ClosesOnTerminalStage(t *testing.T) {
	core, entries := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	db := testutil.NewDB(t)
	rec := newTraceRecorder(repository.NewFanoutLogRepository(db), "e1", false)
	ctx := context.Background()

	for _, d := range []model.StageData{
		model.ReceivedData{},
		model.ValidatedData{IsValid: true},
		model.RecipientResolvedData{},
		model.CompletedData{},
	} {
		_, err := rec.emit(ctx, d)
		require.NoError(t, err)
	}

	_, err := rec.emit(ctx, model.NotificationCreatedData{})
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.ErrorContains(t, err, "trace already closed")

	closed := entries.FilterMessage("fanout trace closed").All()
	require.Len(t, closed, 1)
	assert.Equal(t, "COMPLETED", closed[0].ContextMap()["stage"])
	assert.EqualValues(t, 4, closed[0].ContextMap()["logs"])
}
