package product

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/catalog/application/queries"
	"github.com/spf13/cobra"
)

var listMerchant string

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List a merchant's products",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		merchant, err := cli.ParseAddress("merchant", listMerchant)
		if err != nil {
			return err
		}
		if merchant.IsZero() {
			if merchant, err = cli.CallerAddress(); err != nil {
				return err
			}
		}

		products, err := app.ListProducts.Handle(cmd.Context(), queries.ListProductsQuery{Merchant: merchant})
		if err != nil {
			return err
		}
		return cli.Render(cmd, products, func(w io.Writer) {
			if len(products) == 0 {
				fmt.Fprintln(w, "No products.")
				return
			}
			for _, p := range products {
				fmt.Fprintf(w, "%s  %s every %ds (trial %ds, grace %ds)\n", p.ProductHash, p.Amount, p.Period, p.FreeTrial, p.Grace)
			}
		})
	},
}

func init() {
	listCmd.Flags().StringVar(&listMerchant, "merchant", "", "merchant address (default: caller)")
}
