package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
)

// ErrNotificationNotFound 通知不存在或不属于该用户
var ErrNotificationNotFound = errors.New("notification not found")

// UserRef 用户简要信息
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserDetail 用户详情（含关注关系）
type UserDetail struct {
	*model.User
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	Followers      []UserRef `json:"followers"`
	Following      []UserRef `json:"following"`
}

type UserService interface {
	List(ctx context.Context) ([]*model.User, error)
	Detail(ctx context.Context, id string) (*UserDetail, error)
	Notifications(ctx context.Context, userID string) ([]*model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) (*model.Notification, error)
}

type userService struct {
	users         repository.UserRepository
	followers     repository.FollowerRepository
	notifications repository.NotificationRepository
}

func NewUserService(
	users repository.UserRepository,
	followers repository.FollowerRepository,
	notifications repository.NotificationRepository,
) UserService {
	return &userService{users: users, followers: followers, notifications: notifications}
}

func (s *userService) List(ctx context.Context) ([]*model.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Detail(ctx context.Context, id string) (*UserDetail, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	followers, err := s.followers.GetFollowers(ctx, id)
	if err != nil {
		return nil, err
	}
	following, err := s.followers.GetFollowing(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserDetail{
		User:           u,
		FollowersCount: len(followers),
		FollowingCount: len(following),
		Followers:      toRefs(followers),
		Following:      toRefs(following),
	}, nil
}

func (s *userService) Notifications(ctx context.Context, userID string) ([]*model.Notification, error) {
	return s.notifications.ListByUser(ctx, userID)
}

func (s *userService) MarkNotificationRead(ctx context.Context, userID, notificationID string) (*model.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, userID, notificationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	return n, err
}

func toRefs(users []*model.User) []UserRef {
	refs := make([]UserRef, len(users))
	for i, u := range users {
		refs[i] = UserRef{ID: u.ID, Username: u.Username}
	}
	return refs
}
