package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, userID, eventID, message string) (*model.Notification, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Notification, error)
	// MarkRead 标记已读；通知不存在或不属于该用户时返回 ErrNotFound
	MarkRead(ctx context.Context, userID, id string) (*model.Notification, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, userID, eventID, message string) (*model.Notification, error) {
	n := &model.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventID:   eventID,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at ASC, id ASC").Find(&res).Error
	return res, err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&res).Error
	return res, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) (*model.Notification, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var n model.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}
