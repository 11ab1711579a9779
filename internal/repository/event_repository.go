package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

// ClearResult 重放前清理掉的派生数据条数
type ClearResult struct {
	Notifications int64 `json:"notifications"`
	Logs          int64 `json:"logs"`
}

// EventRepository 事件仓储接口
type EventRepository interface {
	// Create 落地事件（分配 id 与 created_at）
	Create(ctx context.Context, in model.CreateEventInput) (*model.Event, error)

	// GetByID 根据事件ID查询，不存在返回 ErrNotFound
	GetByID(ctx context.Context, id string) (*model.Event, error)

	// List 按创建时间倒序分页
	List(ctx context.Context, offset, limit int) ([]*model.Event, error)

	// ClearEventData 删除事件的通知与 fanout 日志，事件本身保留
	ClearEventData(ctx context.Context, id string) (ClearResult, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓储
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, in model.CreateEventInput) (*model.Event, error) {
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	e := &model.Event{
		ID:        uuid.New().String(),
		ActorID:   in.ActorID,
		Type:      in.Type,
		TargetID:  in.TargetID,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	return &e, nil
}

func (r *eventRepository) List(ctx context.Context, offset, limit int) ([]*model.Event, error) {
	var events []*model.Event
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) ClearEventData(ctx context.Context, id string) (ClearResult, error) {
	var res ClearResult
	// 两次删除互不依赖，不包事务
	tx := r.db.WithContext(ctx).Where("event_id = ?", id).Delete(&model.Notification{})
	if tx.Error != nil {
		return res, fmt.Errorf("failed to clear notifications: %w", tx.Error)
	}
	res.Notifications = tx.RowsAffected

	tx = r.db.WithContext(ctx).Where("event_id = ?", id).Delete(&model.FanoutLog{})
	if tx.Error != nil {
		return res, fmt.Errorf("failed to clear fanout logs: %w", tx.Error)
	}
	res.Logs = tx.RowsAffected
	return res, nil
}
