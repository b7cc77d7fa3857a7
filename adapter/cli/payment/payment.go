package payment

import (
	"github.com/spf13/cobra"
)

// Cmd is the payment command group
var Cmd = &cobra.Command{
	Use:     "payment",
	Short:   "Collect and inspect subscription payments",
	Aliases: []string{"pay"},
}

func init() {
	Cmd.AddCommand(collectCmd)
	Cmd.AddCommand(listCmd)
}
