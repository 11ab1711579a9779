package model

import "time"

// EventType 事件类型（封闭枚举）
type EventType string

const (
	EventTypeLike    EventType = "like"
	EventTypeComment EventType = "comment"
	EventTypeFollow  EventType = "follow"
)

// EventTypes 全部合法事件类型，顺序固定
var EventTypes = []EventType{EventTypeLike, EventTypeComment, EventTypeFollow}

// Valid reports whether t belongs to the closed event type enumeration.
func (t EventType) Valid() bool {
	for _, v := range EventTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Event 用户行为事件，创建后不可变
type Event struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ActorID   string         `json:"actor_id" gorm:"type:varchar(36);index:idx_event_actor"`
	Type      EventType      `json:"type" gorm:"type:varchar(32);index"`
	TargetID  string         `json:"target_id" gorm:"type:varchar(36);index:idx_event_target"`
	Metadata  map[string]any `json:"metadata" gorm:"serializer:json"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}

func (Event) TableName() string { return "events" }

// CreateEventInput 创建事件的入参
type CreateEventInput struct {
	ActorID  string         `json:"actor_id"`
	Type     EventType      `json:"type"`
	TargetID string         `json:"target_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
