package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

// goldenTrace 去掉 id 与时间后的 trace 快照
type goldenTrace struct {
	Event         goldenEvent          `json:"event"`
	Logs          []goldenLog          `json:"logs"`
	Notifications []goldenNotification `json:"notifications"`
}

type goldenEvent struct {
	Actor    string          `json:"actor"`
	Type     model.EventType `json:"type"`
	Target   string          `json:"target"`
	Metadata map[string]any  `json:"metadata"`
}

type goldenLog struct {
	Position int            `json:"position"`
	Stage    model.Stage    `json:"stage"`
	Data     map[string]any `json:"data"`
}

type goldenNotification struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

func (f *fixture) snapshot(t *testing.T, res *FanoutResult) []byte {
	t.Helper()
	names := map[string]string{}
	for _, u := range []*model.User{f.alice, f.bob, f.carol, f.dave} {
		names[u.ID] = u.Username
	}
	notificationRefs := map[string]string{}
	for i, n := range res.Notifications {
		notificationRefs[n.ID] = fmt.Sprintf("notification#%d", i+1)
	}
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	g := goldenTrace{
		Event: goldenEvent{
			Actor:    name(res.Event.ActorID),
			Type:     res.Event.Type,
			Target:   name(res.Event.TargetID),
			Metadata: res.Event.Metadata,
		},
		Logs:          make([]goldenLog, len(res.Logs)),
		Notifications: make([]goldenNotification, len(res.Notifications)),
	}
	for i, l := range res.Logs {
		data := make(map[string]any, len(l.Data))
		for k, v := range l.Data {
			switch k {
			case "duration_ms":
				v = 0
			case "notification_id":
				v = notificationRefs[v.(string)]
			case "actor_id", "target_id", "user_id":
				v = name(v.(string))
			case "recipient_ids":
				ids := v.([]string)
				mapped := make([]string, len(ids))
				for j, id := range ids {
					mapped[j] = name(id)
				}
				v = mapped
			}
			data[k] = v
		}
		g.Logs[i] = goldenLog{Position: l.Position, Stage: l.Stage, Data: data}
	}
	for i, n := range res.Notifications {
		g.Notifications[i] = goldenNotification{User: name(n.UserID), Message: n.Message}
	}

	out, err := json.MarshalIndent(g, "", "  ")
	require.NoError(t, err)
	return out
}

func TestGolden_CommentFanout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.ProcessEvent(ctx, model.CreateEventInput{
		ActorID:  f.alice.ID,
		Type:     model.EventTypeComment,
		TargetID: f.bob.ID,
		Metadata: map[string]any{"post_id": "p-1"},
	})
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "comment_fanout", f.snapshot(t, res))

	replayed, err := f.engine.ReplayEvent(ctx, res.Event.ID)
	require.NoError(t, err)
	g.Assert(t, "comment_replay", f.snapshot(t, replayed))
}

func TestGolden_InvalidEvent(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.ProcessEvent(context.Background(), model.CreateEventInput{
		ActorID:  f.alice.ID,
		Type:     "poke",
		TargetID: f.bob.ID,
	})
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "invalid_poke", f.snapshot(t, res))
}
