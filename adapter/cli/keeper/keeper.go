package keeper

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/spf13/cobra"
)

var runOnce bool

// Cmd is the keeper command group
var Cmd = &cobra.Command{
	Use:   "keeper",
	Short: "Collect due charges on behalf of an initiator",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect due charges as KEEPER_INITIATOR",
	Long: `Scan for subscriptions assigned to KEEPER_INITIATOR whose charge has fallen
due and collect them, claiming KEEPER_COMPENSATION each.

With --once a single sweep runs and its report is printed; otherwise the
keeper sweeps every KEEPER_INTERVAL until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		k, err := app.NewKeeper()
		if err != nil {
			return err
		}

		if !runOnce {
			return k.Run(cmd.Context())
		}
		report, err := k.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		return cli.Render(cmd, map[string]int{
			"due":       report.Due,
			"collected": report.Collected,
			"skipped":   report.Skipped,
			"failed":    report.Failed,
		}, func(w io.Writer) {
			fmt.Fprintf(w, "Due %d, collected %d, skipped %d, failed %d\n",
				report.Due, report.Collected, report.Skipped, report.Failed)
		})
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single sweep and print its report")
	Cmd.AddCommand(runCmd)
}
