// Package cli implements tyrectl, the operator tool for the storefront
// database: schema migrations, seed data, stock and dealer tier changes,
// payment reconciliation and translation checks.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/fjod/athometyre/internal/config"
	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/fjod/athometyre/pkg/logger"
	"github.com/spf13/cobra"
)

// Store is the slice of the repository tyrectl works with.
type Store interface {
	repository.InventoryRepository
	repository.DashboardRepository

	RunMigrations() error
	MigrateDown(steps int) error
	MigrationVersion() (uint, bool, error)

	ListReconcileSessions(ctx context.Context) ([]*domain.CheckoutSession, error)

	CreateBrand(ctx context.Context, b *domain.Brand) error
	CreateTyre(ctx context.Context, t *domain.Tyre) error
	CreateUser(ctx context.Context, u *domain.User) error
	UpsertDealer(ctx context.Context, d *domain.Dealer) error
	CreateCoupon(ctx context.Context, c *domain.Coupon) error

	Close() error
}

var _ Store = (*repository.Repository)(nil)

type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Timeout time.Duration

	// Connect opens the store; tests replace it.
	Connect func() (Store, error)
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Connect: connectPostgres}

	cmd := &cobra.Command{
		Use:           "tyrectl",
		Short:         "athometyre operator tool",
		Long:          "Operator commands for the athometyre storefront database and translations.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log service activity to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "database operation timeout")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewInventoryCommand(opts))
	cmd.AddCommand(NewDealerCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewI18nCommand(opts))

	return cmd
}

func connectPostgres() (Store, error) {
	cred, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}
	repo, err := repository.NewRepository(&cred)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return repo, nil
}

// withStore opens the store, runs fn with a bounded context and closes it.
func (o *RootOptions) withStore(cmd *cobra.Command, fn func(ctx context.Context, s Store) error) error {
	store, err := o.Connect()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	return fn(ctx, store)
}

// logger writes service logs to stderr with --verbose and drops them otherwise.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if !o.Verbose {
		return logger.Discard()
	}
	return logger.NewWithWriter(cmd.ErrOrStderr(), "tyrectl", "debug")
}
