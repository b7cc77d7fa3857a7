package subscription

import (
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [subscription-hash]",
	Short: "Show a subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		hash, err := cli.ParseHash("subscription hash", args[0])
		if err != nil {
			return err
		}

		s, err := app.GetSubscription.Handle(cmd.Context(), queries.GetSubscriptionQuery{SubscriptionHash: hash})
		if err != nil {
			return err
		}
		return cli.Render(cmd, s, func(w io.Writer) { printSubscription(w, *s) })
	},
}
