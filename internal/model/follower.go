package model

import "time"

// Follower 关注关系（UserID 关注 FollowsUserID）
type Follower struct {
	ID            string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID        string `json:"user_id" gorm:"type:varchar(36);not null;index:idx_follower_pair,unique"`
	FollowsUserID string `json:"follows_user_id" gorm:"type:varchar(36);not null;index:idx_follower_target;index:idx_follower_pair,unique"`
	// 复合唯一键，避免重复关注
	// idx_follower_pair = (user_id, follows_user_id)
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_follower_target"`
}

func (Follower) TableName() string { return "followers" }
