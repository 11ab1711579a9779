package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
)

var (
	ErrFollowSelf   = errors.New("cannot follow self")
	ErrUserNotFound = errors.New("user not found")
)

// RelationshipService 关系链服务；评论事件的 follower 接收者来源于此
type RelationshipService interface {
	Follow(ctx context.Context, fromUserID, toUserID string) error
	Unfollow(ctx context.Context, fromUserID, toUserID string) error
	ListFollowers(ctx context.Context, userID string) ([]*model.User, error)
	ListFollowing(ctx context.Context, userID string) ([]*model.User, error)
}

type relationshipService struct {
	userRepo     repository.UserRepository
	followerRepo repository.FollowerRepository
}

func NewRelationshipService(userRepo repository.UserRepository, followerRepo repository.FollowerRepository) RelationshipService {
	return &relationshipService{userRepo: userRepo, followerRepo: followerRepo}
}

func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID string) error {
	if fromUserID == toUserID {
		return ErrFollowSelf
	}
	for _, id := range []string{fromUserID, toUserID} {
		if err := s.ensureUser(ctx, id); err != nil {
			return err
		}
	}
	return s.followerRepo.Create(ctx, fromUserID, toUserID)
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID string) error {
	return s.followerRepo.Delete(ctx, fromUserID, toUserID)
}

func (s *relationshipService) ListFollowers(ctx context.Context, userID string) ([]*model.User, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.followerRepo.GetFollowers(ctx, userID)
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string) ([]*model.User, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.followerRepo.GetFollowing(ctx, userID)
}

func (s *relationshipService) ensureUser(ctx context.Context, id string) error {
	_, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
