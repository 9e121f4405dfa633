package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

type reconcileRow struct {
	SessionID     string    `json:"sessionId"`
	UserID        int64     `json:"userId"`
	TransactionID string    `json:"transactionId,omitempty"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Checkout sessions waiting for manual payment reconciliation",
	}

	var failOnPending bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions parked in RECONCILE",
		Long: `List checkout sessions whose payment may have been captured without an
order being stored. Each needs the charge refunded or the order entered
by hand.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, s Store) error {
				sessions, err := s.ListReconcileSessions(ctx)
				if err != nil {
					return err
				}
				rows := make([]reconcileRow, 0, len(sessions))
				for _, sess := range sessions {
					rows = append(rows, reconcileRow{
						SessionID:     sess.ID.String(),
						UserID:        sess.UserID,
						TransactionID: sess.TransactionID,
						Reason:        sess.FailureReason,
						CreatedAt:     sess.CreatedAt,
						UpdatedAt:     sess.UpdatedAt,
					})
				}
				if err := rootOpts.emit(cmd, "ok", rows, func(w io.Writer) {
					if len(rows) == 0 {
						fmt.Fprintln(w, "nothing to reconcile")
						return
					}
					fmt.Fprintln(w, "SESSION\tUSER\tTRANSACTION\tSINCE\tREASON")
					for _, r := range rows {
						txID := r.TransactionID
						if txID == "" {
							txID = "-"
						}
						fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
							r.SessionID, r.UserID, txID, r.UpdatedAt.Format(time.RFC3339), r.Reason)
					}
				}); err != nil {
					return err
				}
				if failOnPending && len(rows) > 0 {
					return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d session(s) need reconciliation", len(rows))}
				}
				return nil
			})
		},
	}
	list.Flags().BoolVar(&failOnPending, "fail", false, "exit 1 when any session is waiting")
	cmd.AddCommand(list)

	return cmd
}
