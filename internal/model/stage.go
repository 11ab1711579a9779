package model

// Stage fanout 状态机中的阶段（封闭枚举）
type Stage string

const (
	StageReceived            Stage = "RECEIVED"
	StageValidated           Stage = "VALIDATED"
	StageRecipientResolved   Stage = "RECIPIENT_RESOLVED"
	StageNotificationCreated Stage = "NOTIFICATION_CREATED"
	StageCompleted           Stage = "COMPLETED"
	StageError               Stage = "ERROR"
)

// CanFollow reports whether s may be emitted directly after prev.
// An empty prev means the run has not emitted anything yet.
func (s Stage) CanFollow(prev Stage) bool {
	switch s {
	case StageReceived:
		return prev == ""
	case StageValidated:
		return prev == StageReceived
	case StageRecipientResolved, StageError:
		return prev == StageValidated
	case StageNotificationCreated, StageCompleted:
		return prev == StageRecipientResolved || prev == StageNotificationCreated
	default:
		return false
	}
}

// Terminal 终止阶段之后不允许再写日志
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageError
}

// StageData is the payload of one fanout log entry. The set of implementations
// is closed: every payload type lives in this file.
type StageData interface {
	Stage() Stage
	// Fields 返回写入 fanout_logs.data 的键值
	Fields() map[string]any
	sealed()
}

// ReceivedData 事件快照
type ReceivedData struct {
	ActorID  string
	Type     EventType
	TargetID string
	Metadata map[string]any
}

func (ReceivedData) Stage() Stage { return StageReceived }
func (ReceivedData) sealed()      {}

func (d ReceivedData) Fields() map[string]any {
	metadata := d.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return map[string]any{
		"actor_id":  d.ActorID,
		"type":      string(d.Type),
		"target_id": d.TargetID,
		"metadata":  metadata,
	}
}

// ValidatedData 校验结果
type ValidatedData struct {
	IsValid bool
	Errors  []string
}

func (ValidatedData) Stage() Stage { return StageValidated }
func (ValidatedData) sealed()      {}

func (d ValidatedData) Fields() map[string]any {
	return map[string]any{
		"is_valid": d.IsValid,
		"errors":   nonNilStrings(d.Errors),
	}
}

// ErrorData 校验失败时的终止信息
type ErrorData struct {
	Message string
	Errors  []string
}

func (ErrorData) Stage() Stage { return StageError }
func (ErrorData) sealed()      {}

func (d ErrorData) Fields() map[string]any {
	return map[string]any{
		"message": d.Message,
		"errors":  nonNilStrings(d.Errors),
	}
}

// RecipientResolvedData 接收者解析结果
type RecipientResolvedData struct {
	RecipientIDs       []string
	RecipientUsernames []string
	Rule               string
}

func (RecipientResolvedData) Stage() Stage { return StageRecipientResolved }
func (RecipientResolvedData) sealed()      {}

func (d RecipientResolvedData) Fields() map[string]any {
	return map[string]any{
		"recipient_count":     len(d.RecipientIDs),
		"recipient_ids":       nonNilStrings(d.RecipientIDs),
		"recipient_usernames": nonNilStrings(d.RecipientUsernames),
		"rule":                d.Rule,
	}
}

// NotificationCreatedData 单条通知
type NotificationCreatedData struct {
	NotificationID string
	UserID         string
	Username       string
	Message        string
}

func (NotificationCreatedData) Stage() Stage { return StageNotificationCreated }
func (NotificationCreatedData) sealed()      {}

func (d NotificationCreatedData) Fields() map[string]any {
	return map[string]any{
		"notification_id": d.NotificationID,
		"user_id":         d.UserID,
		"username":        d.Username,
		"message":         d.Message,
	}
}

// CompletedData 运行汇总
type CompletedData struct {
	TotalNotifications int
	DurationMs         int64
}

func (CompletedData) Stage() Stage { return StageCompleted }
func (CompletedData) sealed()      {}

func (d CompletedData) Fields() map[string]any {
	return map[string]any{
		"total_notifications": d.TotalNotifications,
		"duration_ms":         d.DurationMs,
	}
}

func nonNilStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
