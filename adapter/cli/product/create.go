package product

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/catalog/application/commands"
	"github.com/spf13/cobra"
)

var (
	merchant  string
	token     string
	amount    string
	period    uint64
	freeTrial uint64
	grace     uint64
	metadata  string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a product",
	Long: `Register a product. Products are content-addressed: registering the same
terms twice returns the existing product.

Examples:
  beaver product create --merchant 0xb2.. --token 0xc0.. --amount 1000000 --period 2592000
  beaver product create --merchant 0xb2.. --token 0xc0.. --amount 5000 --period 604800 --trial 86400 --grace 172800`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		caller, err := cli.CallerAddress()
		if err != nil {
			return err
		}

		req := commands.CreateProductCommand{
			Caller:    caller,
			Period:    period,
			FreeTrial: freeTrial,
			Grace:     grace,
		}
		if req.Merchant, err = cli.ParseAddress("merchant", merchant); err != nil {
			return err
		}
		if req.Token, err = cli.ParseAddress("token", token); err != nil {
			return err
		}
		if req.Amount, err = cli.ParseAmount("amount", amount); err != nil {
			return err
		}
		if req.MetadataHash, err = cli.ParseHash("metadata", metadata); err != nil {
			return err
		}

		result, err := app.CreateProduct.Handle(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		return cli.Render(cmd, map[string]any{
			"product_hash": result.ProductHash,
			"created":      result.Created,
		}, func(w io.Writer) {
			if result.Created {
				fmt.Fprintf(w, "Product created: %s\n", result.ProductHash)
			} else {
				fmt.Fprintf(w, "Product exists: %s\n", result.ProductHash)
			}
		})
	},
}

func init() {
	createCmd.Flags().StringVar(&merchant, "merchant", "", "merchant address receiving payments")
	createCmd.Flags().StringVar(&token, "token", "", "payment token address")
	createCmd.Flags().StringVar(&amount, "amount", "", "charge per period in token base units")
	createCmd.Flags().Uint64Var(&period, "period", 0, "billing period in seconds")
	createCmd.Flags().Uint64Var(&freeTrial, "trial", 0, "free trial in seconds")
	createCmd.Flags().Uint64Var(&grace, "grace", 0, "seconds a charge stays collectable after it falls due")
	createCmd.Flags().StringVar(&metadata, "metadata", "", "32-byte metadata hash")
	_ = createCmd.MarkFlagRequired("merchant")
	_ = createCmd.MarkFlagRequired("token")
	_ = createCmd.MarkFlagRequired("amount")
	_ = createCmd.MarkFlagRequired("period")
}
