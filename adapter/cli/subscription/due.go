package subscription

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/queries"
	"github.com/spf13/cobra"
)

var (
	dueInitiator string
	dueAt        uint64
	dueLimit     int
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List active subscriptions whose next charge has fallen due",
	Long: `List active subscriptions whose next charge has fallen due, oldest first.

Examples:
  beaver subscription due
  beaver subscription due --initiator 0xe1.. --limit 20
  beaver subscription due --at 1767225600`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		initiator, err := cli.ParseAddress("initiator", dueInitiator)
		if err != nil {
			return err
		}

		subs, err := app.ListDue.Handle(cmd.Context(), queries.ListDueQuery{
			Initiator: initiator,
			At:        domain.Timestamp(dueAt),
			Limit:     dueLimit,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, subs, func(w io.Writer) {
			if len(subs) == 0 {
				fmt.Fprintln(w, "Nothing due.")
				return
			}
			for _, s := range subs {
				printRow(w, s)
			}
		})
	},
}

func init() {
	dueCmd.Flags().StringVar(&dueInitiator, "initiator", "", "only subscriptions assigned to this initiator")
	dueCmd.Flags().Uint64Var(&dueAt, "at", 0, "unix time to evaluate at (default: now)")
	dueCmd.Flags().IntVar(&dueLimit, "limit", 100, "maximum subscriptions to list")
}
