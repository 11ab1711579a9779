package cli

import (
	"github.com/spf13/cobra"

	"github.com/d60-Lab/fanout-debugger/internal/app"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <event-id>",
		Short: "Print the stored fanout trace of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				tr, err := a.EventQuery.GetTrace(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), tr)
				}
				writeTrace(cmd.OutOrStdout(), tr.Event, tr.FanoutLogs, tr.Notifications)
				return nil
			})
		},
	}
}
