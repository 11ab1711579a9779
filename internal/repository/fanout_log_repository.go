package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

type FanoutLogRepository interface {
	Create(ctx context.Context, eventID string, stage model.Stage, position int, data map[string]any) (*model.FanoutLog, error)
	// ListByEvent 按写入顺序返回
	ListByEvent(ctx context.Context, eventID string) ([]*model.FanoutLog, error)
}

type fanoutLogRepository struct{ db *gorm.DB }

func NewFanoutLogRepository(db *gorm.DB) FanoutLogRepository {
	return &fanoutLogRepository{db: db}
}

func (r *fanoutLogRepository) Create(ctx context.Context, eventID string, stage model.Stage, position int, data map[string]any) (*model.FanoutLog, error) {
	if data == nil {
		data = map[string]any{}
	}
	l := &model.FanoutLog{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Stage:     stage,
		Position:  position,
		Data:      data,
		CreatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

func (r *fanoutLogRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.FanoutLog, error) {
	var res []*model.FanoutLog
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("position ASC").Find(&res).Error
	return res, err
}
