package token

import (
	"github.com/spf13/cobra"
)

// Cmd is the token command group
var Cmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect and seed the token ledger",
	Long: `Inspect and seed the router's token ledger. Minting is meant for local
and test deployments; subscribers approve the custody account so the
router can pull their charges.`,
}

func init() {
	Cmd.AddCommand(mintCmd)
	Cmd.AddCommand(approveCmd)
	Cmd.AddCommand(balanceCmd)
}
