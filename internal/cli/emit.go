package cli

import (
	"github.com/spf13/cobra"

	"github.com/d60-Lab/fanout-debugger/internal/app"
	"github.com/d60-Lab/fanout-debugger/internal/model"
)

// EmitOptions holds flags for the emit command.
type EmitOptions struct {
	*RootOptions
	ActorID  string
	Type     string
	TargetID string
}

// NewEmitCommand creates the emit command. Unlike the HTTP API it does not
// pre-validate the type, so invalid events produce an ERROR trace.
func NewEmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Create an event and run fanout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(a *app.App) error {
				res, err := a.Engine.ProcessEvent(cmd.Context(), model.CreateEventInput{
					ActorID:  opts.ActorID,
					Type:     model.EventType(opts.Type),
					TargetID: opts.TargetID,
				})
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

	cmd.Flags().StringVar(&opts.ActorID, "actor", "", "actor user id")
	cmd.Flags().StringVar(&opts.Type, "type", "", "event type (like|comment|follow)")
	cmd.Flags().StringVar(&opts.TargetID, "target", "", "target user id")

	return cmd
}
