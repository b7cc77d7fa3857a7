package product

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/internal/catalog/application/queries"
	"github.com/spf13/cobra"
)

// Cmd is the product command group
var Cmd = &cobra.Command{
	Use:   "product",
	Short: "Manage subscription products",
	Long:  `Register products and inspect their billing terms.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
}

func printProduct(w io.Writer, p queries.ProductDTO) {
	fmt.Fprintf(w, "Product %s\n", p.ProductHash)
	fmt.Fprintf(w, "  merchant:   %s\n", p.Merchant)
	fmt.Fprintf(w, "  token:      %s\n", p.Token)
	fmt.Fprintf(w, "  amount:     %s\n", p.Amount)
	fmt.Fprintf(w, "  period:     %ds\n", p.Period)
	fmt.Fprintf(w, "  free trial: %ds\n", p.FreeTrial)
	fmt.Fprintf(w, "  grace:      %ds\n", p.Grace)
	if !p.MetadataHash.IsZero() {
		fmt.Fprintf(w, "  metadata:   %s\n", p.MetadataHash)
	}
}
