package model

import "time"

// FanoutLog fanout 过程的阶段日志（只追加）
type FanoutLog struct {
	ID      string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EventID string `json:"event_id" gorm:"type:varchar(36);not null;index:idx_fanout_log_event_pos,unique"`
	Stage   Stage  `json:"stage" gorm:"type:varchar(32);not null"`
	// Position 是本次运行内的写入序号；按 (event_id, position) 读取即创建顺序
	Position  int            `json:"position" gorm:"not null;index:idx_fanout_log_event_pos,unique"`
	Data      map[string]any `json:"data" gorm:"serializer:json"`
	CreatedAt time.Time      `json:"created_at"`
}

func (FanoutLog) TableName() string { return "fanout_logs" }
