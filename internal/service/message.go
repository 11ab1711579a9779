package service

import "github.com/d60-Lab/fanout-debugger/internal/model"

// UnknownActorName 找不到 actor 用户时的显示名
const UnknownActorName = "Someone"

// NotificationMessage 按事件类型生成通知文案
func NotificationMessage(t model.EventType, actorName string) string {
	switch t {
	case model.EventTypeLike:
		return actorName + " liked your content"
	case model.EventTypeComment:
		return actorName + " commented on a post"
	case model.EventTypeFollow:
		return actorName + " started following you"
	default:
		return actorName + " interacted with you"
	}
}
