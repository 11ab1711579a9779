package cli

import (
	"github.com/spf13/cobra"

	"github.com/d60-Lab/fanout-debugger/internal/app"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <event-id>",
		Short: "Purge an event's notifications and logs and re-run fanout",
		Long: `Replay re-runs fanout for an existing event against the current user and
follower data. Every log of the new trace carries is_replay=true.

Replays of the same event are serialized by the replay lock; a concurrent
replay fails instead of waiting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				res, err := a.Replayer.ReplayEvent(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				writeTrace(cmd.OutOrStdout(), res.Event, res.Logs, res.Notifications)
				return nil
			})
		},
	}
}
