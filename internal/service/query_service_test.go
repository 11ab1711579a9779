package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

func TestEventQueryService_GetTrace(t *testing.T) {
	f := newFixture(t)
	q := NewEventQueryService(f.events, f.logs, f.notifications)
	ctx := context.Background()

	res, err := f.engine.ProcessEvent(ctx, model.CreateEventInput{ActorID: f.alice.ID, Type: model.EventTypeComment, TargetID: f.bob.ID})
	require.NoError(t, err)

	tr, err := q.GetTrace(ctx, res.Event.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Event.ID, tr.Event.ID)
	assert.Equal(t, stagesOf(res.Logs), stagesOf(tr.FanoutLogs))
	assert.Len(t, tr.Notifications, 3)
	// 读回的 JSON 数据
	assert.EqualValues(t, 3, tr.FanoutLogs[2].Data["recipient_count"])

	_, err = q.GetTrace(ctx, "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)

	events, err := q.ListEvents(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestUserService_DetailAndNotifications(t *testing.T) {
	f := newFixture(t)
	us := NewUserService(f.users, f.followers, f.notifications)
	ctx := context.Background()

	d, err := us.Detail(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, d.FollowersCount)
	assert.Equal(t, 0, d.FollowingCount)
	assert.Equal(t, []UserRef{{f.carol.ID, "carol"}, {f.dave.ID, "dave"}}, d.Followers)

	_, err = us.Detail(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.engine.ProcessEvent(ctx, model.CreateEventInput{ActorID: f.alice.ID, Type: model.EventTypeLike, TargetID: f.bob.ID})
	require.NoError(t, err)

	ns, err := us.Notifications(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, ns, 1)

	n, err := us.MarkNotificationRead(ctx, f.bob.ID, ns[0].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	_, err = us.MarkNotificationRead(ctx, f.carol.ID, ns[0].ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestRelationshipService(t *testing.T) {
	f := newFixture(t)
	rs := NewRelationshipService(f.users, f.followers)
	ctx := context.Background()

	assert.ErrorIs(t, rs.Follow(ctx, f.alice.ID, f.alice.ID), ErrFollowSelf)
	assert.ErrorIs(t, rs.Follow(ctx, f.alice.ID, "missing"), ErrUserNotFound)

	require.NoError(t, rs.Follow(ctx, f.alice.ID, f.bob.ID))
	followers, err := rs.ListFollowers(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 3)
	assert.Equal(t, f.alice.ID, followers[2].ID)

	following, err := rs.ListFollowing(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)

	require.NoError(t, rs.Unfollow(ctx, f.alice.ID, f.bob.ID))
	following, err = rs.ListFollowing(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, following)

	_, err = rs.ListFollowers(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
