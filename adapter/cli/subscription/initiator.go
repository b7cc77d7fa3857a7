package subscription

import (
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/commands"
	"github.com/spf13/cobra"
)

var (
	initiatorFrom string
	initiatorTo   string
	initiatorAll  bool
)

var initiatorCmd = &cobra.Command{
	Use:   "initiator [subscription-hash]",
	Short: "Hand billing to another initiator",
	Long: `Hand billing of a subscription to another initiator. --from must name the
current initiator. With --all every active subscription of the caller
assigned to --from is reassigned.

Examples:
  beaver subscription initiator 0x5f.. --from 0xe1.. --to 0xe2..
  beaver subscription initiator --all --from 0xe1.. --to 0xe2..`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		caller, err := cli.CallerAddress()
		if err != nil {
			return err
		}
		from, err := cli.ParseAddress("from", initiatorFrom)
		if err != nil {
			return err
		}
		to, err := cli.ParseAddress("to", initiatorTo)
		if err != nil {
			return err
		}

		var result *commands.ChangeInitiatorResult
		switch {
		case initiatorAll && len(args) == 0:
			result, err = app.ChangeInitiatorForAll.Handle(cmd.Context(), commands.ChangeInitiatorForAllCommand{
				Caller:       caller,
				OldInitiator: from,
				NewInitiator: to,
			})
		case !initiatorAll && len(args) == 1:
			hash, perr := cli.ParseHash("subscription hash", args[0])
			if perr != nil {
				return perr
			}
			result, err = app.ChangeInitiator.Handle(cmd.Context(), commands.ChangeInitiatorCommand{
				Caller:           caller,
				SubscriptionHash: hash,
				OldInitiator:     from,
				NewInitiator:     to,
			})
		default:
			return errors.New("give either a subscription hash or --all")
		}
		if err != nil {
			return fmt.Errorf("failed to change initiator: %w", err)
		}

		return cli.Render(cmd, map[string]any{"subscription_hashes": result.SubscriptionHashes}, func(w io.Writer) {
			fmt.Fprintf(w, "Initiator changed to %s for %d subscription(s)\n", to, len(result.SubscriptionHashes))
			for _, h := range result.SubscriptionHashes {
				fmt.Fprintf(w, "  %s\n", h)
			}
		})
	},
}

func init() {
	initiatorCmd.Flags().StringVar(&initiatorFrom, "from", "", "current initiator")
	initiatorCmd.Flags().StringVar(&initiatorTo, "to", "", "new initiator")
	initiatorCmd.Flags().BoolVar(&initiatorAll, "all", false, "reassign every active subscription assigned to --from")
	_ = initiatorCmd.MarkFlagRequired("from")
	_ = initiatorCmd.MarkFlagRequired("to")
}
