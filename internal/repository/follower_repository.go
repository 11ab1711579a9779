package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

// FollowerRepository 关注关系仓储
type FollowerRepository interface {
	Create(ctx context.Context, userID, followsUserID string) error
	Delete(ctx context.Context, userID, followsUserID string) error
	Exists(ctx context.Context, userID, followsUserID string) (bool, error)
	// GetFollowers 返回关注 userID 的用户，按关注时间先后
	GetFollowers(ctx context.Context, userID string) ([]*model.User, error)
	// GetFollowing 返回 userID 关注的用户，按关注时间先后
	GetFollowing(ctx context.Context, userID string) ([]*model.User, error)
	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
}

type followerRepository struct {
	db *gorm.DB
}

func NewFollowerRepository(db *gorm.DB) FollowerRepository { return &followerRepository{db: db} }

func (r *followerRepository) Create(ctx context.Context, userID, followsUserID string) error {
	f := &model.Follower{ID: uuid.New().String(), UserID: userID, FollowsUserID: followsUserID, CreatedAt: time.Now()}
	// 幂等：重复关注不报错
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f).Error
}

func (r *followerRepository) Delete(ctx context.Context, userID, followsUserID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND follows_user_id = ?", userID, followsUserID).
		Delete(&model.Follower{}).Error
}

func (r *followerRepository) Exists(ctx context.Context, userID, followsUserID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follower{}).
		Where("user_id = ? AND follows_user_id = ?", userID, followsUserID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followerRepository) GetFollowers(ctx context.Context, userID string) ([]*model.User, error) {
	var res []*model.User
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.*").
		Joins("JOIN followers ON followers.user_id = users.id").
		Where("followers.follows_user_id = ?", userID).
		Order("followers.created_at ASC, followers.id ASC").
		Find(&res).Error
	return res, err
}

func (r *followerRepository) GetFollowing(ctx context.Context, userID string) ([]*model.User, error) {
	var res []*model.User
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.*").
		Joins("JOIN followers ON followers.follows_user_id = users.id").
		Where("followers.user_id = ?", userID).
		Order("followers.created_at ASC, followers.id ASC").
		Find(&res).Error
	return res, err
}

func (r *followerRepository) CountFollowers(ctx context.Context, userID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Follower{}).Where("follows_user_id = ?", userID).Count(&cnt).Error
	return cnt, err
}

func (r *followerRepository) CountFollowing(ctx context.Context, userID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Follower{}).Where("user_id = ?", userID).Count(&cnt).Error
	return cnt, err
}
