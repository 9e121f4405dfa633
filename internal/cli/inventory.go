package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/inventory"
	"github.com/spf13/cobra"
)

func NewInventoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Inspect and adjust stock",
	}
	cmd.AddCommand(newInventoryListCommand(rootOpts))
	cmd.AddCommand(newInventoryAdjustCommand(rootOpts))
	return cmd
}

func newInventoryListCommand(rootOpts *RootOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stock levels with their status",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.StockStatus(strings.ToUpper(status))
			switch filter {
			case "", domain.StockOut, domain.StockLow, domain.StockNormal, domain.StockHigh:
			default:
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid status %q", status)}
			}
			return rootOpts.withStore(cmd, func(ctx context.Context, s Store) error {
				ov, err := inventory.NewService(s, nil, rootOpts.logger(cmd)).Overview(ctx, filter)
				if err != nil {
					return err
				}
				return rootOpts.emit(cmd, "ok", ov, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tBRAND\tNAME\tSIZE\tSTOCK\tSTATUS")
					for _, it := range ov.Items {
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", it.TyreID, it.BrandName, it.Name, it.Size, it.Stock, it.Status)
					}
					fmt.Fprintf(w, "\n%d products, %d out of stock, %d low, %d units worth %s\n",
						ov.Totals.TotalProducts, ov.Totals.OutOfStock, ov.Totals.LowStock,
						ov.Totals.TotalUnits, ov.Totals.StockValue.StringFixed(2))
				})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only rows with this status (OUT, LOW, NORMAL, HIGH)")
	return cmd
}

type adjustOptions struct {
	kind     string
	quantity int
	reason   string
	notes    string
	actor    int64
}

func newInventoryAdjustCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &adjustOptions{}
	cmd := &cobra.Command{
		Use:   "adjust <tyre-id>",
		Short: "Add, remove or set the stock of one tyre",
		Long: `Adjust the stock of one tyre and record the audit row.

REMOVE never takes stock below zero; a larger removal is clamped and
reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tyreID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid tyre id %q", args[0])}
			}
			return rootOpts.withStore(cmd, func(ctx context.Context, s Store) error {
				res, err := inventory.NewService(s, nil, rootOpts.logger(cmd)).AdjustStock(ctx, inventory.Adjustment{
					ProductID: tyreID,
					Type:      domain.AdjustmentType(opts.kind),
					Quantity:  opts.quantity,
					Reason:    opts.reason,
					Notes:     opts.notes,
					ActorID:   opts.actor,
				})
				if err != nil {
					return err
				}
				return rootOpts.emit(cmd, "ok", res, func(w io.Writer) {
					a := res.Adjustment
					fmt.Fprintf(w, "%s: %d -> %d (%s)\n", res.Tyre.Name, a.PreviousStock, a.NewStock, res.Status)
					if a.Clamped {
						fmt.Fprintf(w, "removal clamped at zero, %d units short\n", a.Quantity-a.PreviousStock)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&opts.kind, "type", "", "ADD, REMOVE or SET")
	cmd.Flags().IntVarP(&opts.quantity, "quantity", "q", 0, "units to add, remove or set")
	cmd.Flags().StringVar(&opts.reason, "reason", "", "reason recorded on the audit row")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "free-form notes")
	cmd.Flags().Int64Var(&opts.actor, "actor", 0, "user id of the staff member making the change")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
