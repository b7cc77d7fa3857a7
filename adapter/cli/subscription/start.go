package subscription

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/commands"
	"github.com/spf13/cobra"
)

var (
	startInitiator string
	startMetadata  string
)

var startCmd = &cobra.Command{
	Use:     "start [product-hash]",
	Short:   "Subscribe to a product",
	Aliases: []string{"subscribe"},
	Long: `Subscribe the caller to a product. Without --initiator the router's
default initiator collects the charges.

Starting the same subscription again is a no-op.`,
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

		req := commands.StartSubscriptionCommand{Caller: caller}
		if req.ProductHash, err = cli.ParseHash("product hash", args[0]); err != nil {
			return err
		}
		if req.Initiator, err = cli.ParseAddress("initiator", startInitiator); err != nil {
			return err
		}
		if req.MetadataHash, err = cli.ParseHash("metadata", startMetadata); err != nil {
			return err
		}

		result, err := app.StartSubscription.Handle(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to start subscription: %w", err)
		}

		return cli.Render(cmd, map[string]any{
			"subscription_hash": result.SubscriptionHash,
			"next_charge_at":    result.NextChargeAt,
			"created":           result.Created,
		}, func(w io.Writer) {
			if result.Created {
				fmt.Fprintf(w, "Subscription started: %s\n", result.SubscriptionHash)
			} else {
				fmt.Fprintf(w, "Subscription already active: %s\n", result.SubscriptionHash)
			}
			fmt.Fprintf(w, "  next charge: %s\n", cli.FormatTimestamp(result.NextChargeAt))
		})
	},
}

func init() {
	startCmd.Flags().StringVar(&startInitiator, "initiator", "", "account allowed to trigger charges")
	startCmd.Flags().StringVar(&startMetadata, "metadata", "", "32-byte subscription metadata hash")
}
