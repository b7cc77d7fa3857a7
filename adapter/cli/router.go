package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var routerCmd = &cobra.Command{
	Use:   "router",
	Short: "Show the router deployment parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := RequireApp()
		if err != nil {
			return err
		}
		p := a.Params
		return Render(cmd, p, func(w io.Writer) {
			fmt.Fprintf(w, "owner:             %s\n", p.Owner)
			fmt.Fprintf(w, "default initiator: %s\n", p.DefaultInitiator)
			fmt.Fprintf(w, "treasury:          %s\n", p.Treasury)
			fmt.Fprintf(w, "custody:           %s\n", p.Custody)
			fmt.Fprintf(w, "fee rate:          %s / 1e18\n", p.FeeRate)
			fmt.Fprintf(w, "backend:           %s\n", a.Backend)
		})
	},
}

func init() {
	rootCmd.AddCommand(routerCmd)
}
