package subscription

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/commands"
	"github.com/spf13/cobra"
)

var terminateCmd = &cobra.Command{
	Use:   "terminate [subscription-hash]",
	Short: "End a subscription",
	Long: `End a subscription. Either the subscriber or the initiator may terminate;
no further charges can be collected afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		caller, err := cli.CallerAddress()
		if err != nil {
			return err
		}
		hash, err := cli.ParseHash("subscription hash", args[0])
		if err != nil {
			return err
		}

		result, err := app.TerminateSubscription.Handle(cmd.Context(), commands.TerminateSubscriptionCommand{
			Caller:           caller,
			SubscriptionHash: hash,
		})
		if err != nil {
			return fmt.Errorf("failed to terminate subscription: %w", err)
		}

		return cli.Render(cmd, map[string]any{"subscription_hash": hash, "terminated": result.Terminated}, func(w io.Writer) {
			if result.Terminated {
				fmt.Fprintf(w, "Subscription terminated: %s\n", hash)
			} else {
				fmt.Fprintf(w, "Subscription was already terminated: %s\n", hash)
			}
		})
	},
}
