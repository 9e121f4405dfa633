package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fjod/athometyre/internal/dashboard"
	"github.com/spf13/cobra"
)

func NewDealerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dealer",
		Short: "Manage dealer accounts",
	}

	var actor int64
	setTier := &cobra.Command{
		Use:           "set-tier <user-id> <level>",
		Short:         "Set a dealer's tier (1 Bronze .. 5 Diamond)",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid user id %q", args[0])}
			}
			level, err := strconv.Atoi(args[1])
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid tier level %q", args[1])}
			}
			return rootOpts.withStore(cmd, func(ctx context.Context, s Store) error {
				tier, err := dashboard.NewService(s, rootOpts.logger(cmd)).SetTier(ctx, userID, level, actor)
				if err != nil {
					return err
				}
				return rootOpts.emit(cmd, "ok", tier, func(w io.Writer) {
					fmt.Fprintf(w, "dealer %d is now %s (level %d)\n", userID, tier.Name, tier.Level)
				})
			})
		},
	}
	setTier.Flags().Int64Var(&actor, "actor", 0, "user id of the staff member making the change")
	cmd.AddCommand(setTier)

	return cmd
}
