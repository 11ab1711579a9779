package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/fanout-debugger/internal/app"
	"github.com/d60-Lab/fanout-debugger/internal/model"
	"github.com/d60-Lab/fanout-debugger/internal/repository"
)

// demo graph: carol and dave follow bob
var seedUsers = []string{"alice", "bob", "carol", "dave"}

var seedFollows = [][2]string{{"carol", "bob"}, {"dave", "bob"}}

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert a small demo user graph (idempotent)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				ctx := cmd.Context()
				ids := make(map[string]string, len(seedUsers))
				for _, name := range seedUsers {
					u, err := a.Users.GetByUsername(ctx, name)
					if errors.Is(err, repository.ErrNotFound) {
						u = &model.User{Username: name}
						err = a.Users.Create(ctx, u)
					}
					if err != nil {
						return fmt.Errorf("seed user %s: %w", name, err)
					}
					ids[name] = u.ID
				}
				for _, f := range seedFollows {
					if err := a.Followers.Create(ctx, ids[f[0]], ids[f[1]]); err != nil {
						return fmt.Errorf("seed follow %s -> %s: %w", f[0], f[1], err)
					}
				}

				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), ids)
				}
				for _, name := range seedUsers {
					fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", name, ids[name])
				}
				return nil
			})
		},
	}
}
