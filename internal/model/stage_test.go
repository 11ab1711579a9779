package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_CanFollow(t *testing.T) {
	tests := []struct {
		stage Stage
		prev  Stage
		want  bool
	}{
		{StageReceived, "", true},
		{StageReceived, StageReceived, false},
		{StageValidated, StageReceived, true},
		{StageValidated, "", false},
		{StageRecipientResolved, StageValidated, true},
		{StageError, StageValidated, true},
		{StageError, StageRecipientResolved, false},
		{StageNotificationCreated, StageRecipientResolved, true},
		{StageNotificationCreated, StageNotificationCreated, true},
		{StageNotificationCreated, StageValidated, false},
		{StageCompleted, StageRecipientResolved, true},
		{StageCompleted, StageNotificationCreated, true},
		{StageCompleted, StageValidated, false},
		{StageValidated, StageCompleted, false},
		{Stage("BOGUS"), StageReceived, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.stage.CanFollow(tt.prev), "%s after %q", tt.stage, tt.prev)
	}
}

var allStages = []Stage{
	StageReceived,
	StageValidated,
	StageRecipientResolved,
	StageNotificationCreated,
	StageCompleted,
	StageError,
}

func TestStage_NothingFollowsTerminal(t *testing.T) {
	for _, term := range []Stage{StageCompleted, StageError} {
		assert.True(t, term.Terminal())
		for _, s := range allStages {
			assert.False(t, s.CanFollow(term), "%s after %s", s, term)
		}
	}
}

func TestStageData_Fields(t *testing.T) {
	rr := RecipientResolvedData{Rule: "owner + followers"}.Fields()
	assert.Equal(t, 0, rr["recipient_count"])
	assert.Equal(t, []string{}, rr["recipient_ids"])

	v := ValidatedData{IsValid: true}.Fields()
	assert.Equal(t, []string{}, v["errors"])

	r := ReceivedData{ActorID: "a", Type: EventTypeLike, TargetID: "b"}.Fields()
	assert.Equal(t, "like", r["type"])
	assert.Equal(t, map[string]any{}, r["metadata"])

	var payloads = []StageData{
		ReceivedData{}, ValidatedData{}, RecipientResolvedData{},
		NotificationCreatedData{}, CompletedData{}, ErrorData{},
	}
	for i, p := range payloads {
		assert.Equal(t, allStages[i], p.Stage())
	}
}

func TestEventType_Valid(t *testing.T) {
	assert.True(t, EventTypeLike.Valid())
	assert.True(t, EventTypeFollow.Valid())
	assert.False(t, EventType("poke").Valid())
	assert.False(t, EventType("").Valid())
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "alice", (&User{Username: "alice"}).DisplayName("Someone"))
	assert.Equal(t, "Someone", (&User{}).DisplayName("Someone"))
}
