package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "up",
		Short:        "Apply all pending migrations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(_ context.Context, s Store) error {
				if err := s.RunMigrations(); err != nil {
					return err
				}
				return reportVersion(cmd, rootOpts, s)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:          "down",
		Short:        "Roll back migrations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return &ExitError{Code: ExitCommandError, Message: "--steps must be at least 1"}
			}
			return rootOpts.withStore(cmd, func(_ context.Context, s Store) error {
				if err := s.MigrateDown(steps); err != nil {
					return err
				}
				return reportVersion(cmd, rootOpts, s)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:          "version",
		Short:        "Print the applied schema version",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(_ context.Context, s Store) error {
				return reportVersion(cmd, rootOpts, s)
			})
		},
	})

	return cmd
}

type schemaVersion struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func reportVersion(cmd *cobra.Command, o *RootOptions, s Store) error {
	version, dirty, err := s.MigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	v := schemaVersion{Version: version, Dirty: dirty}
	return o.emit(cmd, "ok", v, func(w io.Writer) {
		if dirty {
			fmt.Fprintf(w, "schema version %d (dirty)\n", version)
			return
		}
		fmt.Fprintf(w, "schema version %d\n", version)
	})
}
