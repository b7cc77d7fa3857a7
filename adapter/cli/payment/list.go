package payment

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/payments/application/queries"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list [subscription-hash]",
	Short:   "List the receipts of a subscription",
	Aliases: []string{"ls"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		hash, err := cli.ParseHash("subscription hash", args[0])
		if err != nil {
			return err
		}

		receipts, err := app.ListPayments.Handle(cmd.Context(), queries.ListPaymentsQuery{SubscriptionHash: hash})
		if err != nil {
			return err
		}
		return cli.Render(cmd, receipts, func(w io.Writer) {
			if len(receipts) == 0 {
				fmt.Fprintln(w, "No payments yet.")
				return
			}
			for _, p := range receipts {
				fmt.Fprintf(w, "due %d  paid %d  %s (merchant %s, initiator %s, fee %s)\n",
					p.DueAt, p.PaidAt, p.Amount, p.MerchantAmount, p.Compensation, p.ProtocolFee)
			}
		})
	},
}
