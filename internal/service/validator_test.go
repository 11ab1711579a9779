package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

func TestValidateEvent(t *testing.T) {
	tests := []struct {
		name   string
		event  model.Event
		errors []string
	}{
		{
			name:   "valid like",
			event:  model.Event{ActorID: "a", Type: model.EventTypeLike, TargetID: "b"},
			errors: []string{},
		},
		{
			name:   "unknown type",
			event:  model.Event{ActorID: "a", Type: "poke", TargetID: "b"},
			errors: []string{"Invalid event type: poke"},
		},
		{
			name:   "missing target",
			event:  model.Event{ActorID: "a", Type: model.EventTypeFollow},
			errors: []string{"target_id is required"},
		},
		{
			name:  "everything missing, all reasons in check order",
			event: model.Event{},
			errors: []string{
				"actor_id is required",
				"type is required",
				"Invalid event type: ",
				"target_id is required",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateEvent(&tt.event)
			assert.Equal(t, len(tt.errors) == 0, res.Valid)
			assert.Equal(t, tt.errors, res.Errors)
		})
	}
}
