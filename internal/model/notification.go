package model

import "time"

// Notification 通知（每个非 actor 接收者一条）
type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);index:idx_notification_user;not null"`
	EventID   string    `json:"event_id" gorm:"type:varchar(36);index:idx_notification_event;not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	IsRead    bool      `json:"is_read" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_notification_user"`
}

func (Notification) TableName() string { return "notifications" }
