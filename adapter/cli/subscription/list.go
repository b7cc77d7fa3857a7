package subscription

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/queries"
	"github.com/spf13/cobra"
)

var (
	listSubscriber string
	listActive     bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List a subscriber's subscriptions",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		subscriber, err := cli.ParseAddress("subscriber", listSubscriber)
		if err != nil {
			return err
		}
		if subscriber.IsZero() {
			if subscriber, err = cli.CallerAddress(); err != nil {
				return err
			}
		}

		subs, err := app.ListSubscriptions.Handle(cmd.Context(), queries.ListSubscriptionsQuery{
			Subscriber: subscriber,
			ActiveOnly: listActive,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, subs, func(w io.Writer) {
			if len(subs) == 0 {
				fmt.Fprintln(w, "No subscriptions.")
				return
			}
			for _, s := range subs {
				printRow(w, s)
			}
		})
	},
}

func init() {
	listCmd.Flags().StringVar(&listSubscriber, "subscriber", "", "subscriber address (default: caller)")
	listCmd.Flags().BoolVar(&listActive, "active", false, "only active subscriptions")
}
