package payment

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/payments/application/commands"
	"github.com/spf13/cobra"
)

var collectCompensation string

var collectCmd = &cobra.Command{
	Use:     "collect [subscription-hash]",
	Short:   "Collect the charge that is currently due",
	Aliases: []string{"make"},
	Long: `Collect one period's charge of a subscription. The caller must be the
subscription's initiator and receives --compensation out of the charge.

Examples:
  beaver payment collect 0x5f.. --as 0xe1.. --compensation 1000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		caller, err := cli.CallerAddress()
		if err != nil {
			return err
		}
		hash, err := cli.ParseHash("subscription hash", args[0])
		if err != nil {
			return err
		}
		compensation, err := cli.ParseAmount("compensation", collectCompensation)
		if err != nil {
			return err
		}

		result, err := app.MakePayment.Handle(cmd.Context(), commands.MakePaymentCommand{
			Caller:           caller,
			SubscriptionHash: hash,
			Compensation:     compensation,
		})
		if err != nil {
			return fmt.Errorf("payment failed: %w", err)
		}

		return cli.Render(cmd, map[string]any{
			"subscription_hash": result.SubscriptionHash,
			"due_at":            result.DueAt,
			"next_charge_at":    result.NextChargeAt,
			"amount":            result.Split.Amount,
			"merchant_amount":   result.Split.MerchantAmount,
			"compensation":      result.Split.Compensation,
			"protocol_fee":      result.Split.ProtocolFee,
		}, func(w io.Writer) {
			fmt.Fprintf(w, "Collected %s for %s\n", result.Split.Amount, result.SubscriptionHash)
			fmt.Fprintf(w, "  merchant:     %s\n", result.Split.MerchantAmount)
			fmt.Fprintf(w, "  compensation: %s\n", result.Split.Compensation)
			fmt.Fprintf(w, "  protocol fee: %s\n", result.Split.ProtocolFee)
			fmt.Fprintf(w, "  next charge:  %s\n", cli.FormatTimestamp(result.NextChargeAt))
		})
	},
}

func init() {
	collectCmd.Flags().StringVar(&collectCompensation, "compensation", "0", "initiator compensation in token base units")
}
