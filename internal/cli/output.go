package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/d60-Lab/fanout-debugger/internal/model"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTrace prints one line per stage, data keys sorted.
func writeTrace(w io.Writer, event *model.Event, logs []*model.FanoutLog, notifications []*model.Notification) {
	fmt.Fprintf(w, "event %s  %s  actor=%s target=%s\n", event.ID, event.Type, event.ActorID, event.TargetID)
	for _, l := range logs {
		fmt.Fprintf(w, "  %2d %-21s %s\n", l.Position, l.Stage, formatData(l.Data))
	}
	fmt.Fprintf(w, "notifications: %d\n", len(notifications))
	for _, n := range notifications {
		fmt.Fprintf(w, "  -> %s  %q\n", n.UserID, n.Message)
	}
}

func formatData(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		v, _ := json.Marshal(data[k])
		parts[i] = k + "=" + string(v)
	}
	return strings.Join(parts, " ")
}
