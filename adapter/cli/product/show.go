package product

import (
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/catalog/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [product-hash]",
	Short: "Show a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		hash, err := cli.ParseHash("product hash", args[0])
		if err != nil {
			return err
		}

		p, err := app.GetProduct.Handle(cmd.Context(), queries.GetProductQuery{ProductHash: hash})
		if err != nil {
			return err
		}
		return cli.Render(cmd, p, func(w io.Writer) { printProduct(w, *p) })
	},
}
