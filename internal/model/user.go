package model

import "time"

// User 用户（由外部用户系统维护，fanout 只读）
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Email     *string   `json:"email" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// DisplayName returns the username, or fallback when the user is unknown.
func (u *User) DisplayName(fallback string) string {
	if u == nil || u.Username == "" {
		return fallback
	}
	return u.Username
}
