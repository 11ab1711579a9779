package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
)

// RecipientRule returns the human-readable resolution rule recorded in traces.
func RecipientRule(t model.EventType) string {
	switch t {
	case model.EventTypeLike:
		return "owner of target"
	case model.EventTypeComment:
		return "owner + followers"
	case model.EventTypeFollow:
		return "followed user"
	default:
		return "unknown"
	}
}

// RecipientResolver maps an event to its ordered, de-duplicated candidate
// recipients. Every call reads live repository state.
type RecipientResolver struct {
	users     repository.UserRepository
	followers repository.FollowerRepository
}

func NewRecipientResolver(users repository.UserRepository, followers repository.FollowerRepository) *RecipientResolver {
	return &RecipientResolver{users: users, followers: followers}
}

// Resolve 按事件类型解析接收者；actor 不在此处剔除
func (r *RecipientResolver) Resolve(ctx context.Context, e *model.Event) ([]*model.User, error) {
	switch e.Type {
	case model.EventTypeLike, model.EventTypeFollow:
		owner, err := r.owner(ctx, e.TargetID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return []*model.User{}, nil
		}
		return []*model.User{owner}, nil

	case model.EventTypeComment:
		recipients := []*model.User{}
		seen := make(map[string]struct{})
		owner, err := r.owner(ctx, e.TargetID)
		if err != nil {
			return nil, err
		}
		if owner != nil {
			recipients = append(recipients, owner)
			seen[owner.ID] = struct{}{}
		}
		followers, err := r.followers.GetFollowers(ctx, e.TargetID)
		if err != nil {
			return nil, err
		}
		for _, f := range followers {
			if _, dup := seen[f.ID]; dup {
				continue
			}
			seen[f.ID] = struct{}{}
			recipients = append(recipients, f)
		}
		return recipients, nil

	default:
		return []*model.User{}, nil
	}
}

// owner 返回 target 对应用户；不存在时返回 nil, nil
func (r *RecipientResolver) owner(ctx context.Context, targetID string) (*model.User, error) {
	u, err := r.users.GetByID(ctx, targetID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
