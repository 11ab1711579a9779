package service

import (
	"testing"

	"gorm.io/gorm"

	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
	"github.com/d60-Lab/fanout-debugger/internal/testutil"
)

// graph: carol, dave -> bob; alice 无关注
type fixture struct {
	db *gorm.DB

	events        repository.EventRepository
	users         repository.UserRepository
	followers     repository.FollowerRepository
	notifications repository.NotificationRepository
	logs          repository.FanoutLogRepository
	engine        *FanoutEngine

	alice, bob, carol, dave *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:            db,
		events:        repository.NewEventRepository(db),
		users:         repository.NewUserRepository(db),
		followers:     repository.NewFollowerRepository(db),
		notifications: repository.NewNotificationRepository(db),
		logs:          repository.NewFanoutLogRepository(db),
	}
	f.engine = NewFanoutEngine(f.events, f.users, f.followers, f.notifications, f.logs)

	f.alice = testutil.CreateUser(t, db, "alice")
	f.bob = testutil.CreateUser(t, db, "bob")
	f.carol = testutil.CreateUser(t, db, "carol")
	f.dave = testutil.CreateUser(t, db, "dave")
	testutil.Follow(t, db, f.carol, f.bob)
	testutil.Follow(t, db, f.dave, f.bob)
	return f
}

func stagesOf(logs []*model.FanoutLog) []model.Stage {
	out := make([]model.Stage, len(logs))
	for i, l := range logs {
		out[i] = l.Stage
	}
	return out
}

type delivery struct {
	UserID  string
	Message string
}

func deliveries(ns []*model.Notification) []delivery {
	out := make([]delivery, len(ns))
	for i, n := range ns {
		out[i] = delivery{UserID: n.UserID, Message: n.Message}
	}
	return out
}
