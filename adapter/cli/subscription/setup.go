package subscription

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/commands"
	"github.com/spf13/cobra"
)

var (
	setupMerchant        string
	setupToken           string
	setupAmount          string
	setupPeriod          uint64
	setupTrial           uint64
	setupGrace           uint64
	setupProductMetadata string
	setupMetadata        string
	setupInitiator       string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register a product and subscribe to it in one step",
	Long: `Register a product (or reuse an identical one) and subscribe the caller.
Either both are recorded or neither is.

Examples:
  beaver subscription setup --merchant 0xb2.. --token 0xc0.. --amount 1000000 --period 2592000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		caller, err := cli.CallerAddress()
		if err != nil {
			return err
		}

		req := commands.CreateProductAndStartSubscriptionCommand{
			Caller:    caller,
			Period:    setupPeriod,
			FreeTrial: setupTrial,
			Grace:     setupGrace,
		}
		if req.Merchant, err = cli.ParseAddress("merchant", setupMerchant); err != nil {
			return err
		}
		if req.Token, err = cli.ParseAddress("token", setupToken); err != nil {
			return err
		}
		if req.Amount, err = cli.ParseAmount("amount", setupAmount); err != nil {
			return err
		}
		if req.ProductMetadata, err = cli.ParseHash("product metadata", setupProductMetadata); err != nil {
			return err
		}
		if req.SubscriptionMetadata, err = cli.ParseHash("metadata", setupMetadata); err != nil {
			return err
		}
		if req.Initiator, err = cli.ParseAddress("initiator", setupInitiator); err != nil {
			return err
		}

		result, err := app.CreateProductAndStartSubscription.Handle(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to set up subscription: %w", err)
		}

		return cli.Render(cmd, map[string]any{
			"product_hash":      result.ProductHash,
			"subscription_hash": result.SubscriptionHash,
			"next_charge_at":    result.NextChargeAt,
			"product_created":   result.ProductCreated,
		}, func(w io.Writer) {
			fmt.Fprintf(w, "Subscription started: %s\n", result.SubscriptionHash)
			fmt.Fprintf(w, "  product:     %s\n", result.ProductHash)
			fmt.Fprintf(w, "  next charge: %s\n", cli.FormatTimestamp(result.NextChargeAt))
		})
	},
}

func init() {
	setupCmd.Flags().StringVar(&setupMerchant, "merchant", "", "merchant address receiving payments")
	setupCmd.Flags().StringVar(&setupToken, "token", "", "payment token address")
	setupCmd.Flags().StringVar(&setupAmount, "amount", "", "charge per period in token base units")
	setupCmd.Flags().Uint64Var(&setupPeriod, "period", 0, "billing period in seconds")
	setupCmd.Flags().Uint64Var(&setupTrial, "trial", 0, "free trial in seconds")
	setupCmd.Flags().Uint64Var(&setupGrace, "grace", 0, "seconds a charge stays collectable after it falls due")
	setupCmd.Flags().StringVar(&setupProductMetadata, "product-metadata", "", "32-byte product metadata hash")
	setupCmd.Flags().StringVar(&setupMetadata, "metadata", "", "32-byte subscription metadata hash")
	setupCmd.Flags().StringVar(&setupInitiator, "initiator", "", "account allowed to trigger charges")
	_ = setupCmd.MarkFlagRequired("merchant")
	_ = setupCmd.MarkFlagRequired("token")
	_ = setupCmd.MarkFlagRequired("amount")
	_ = setupCmd.MarkFlagRequired("period")
}
