package subscription

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/subscriptions/application/queries"
	"github.com/spf13/cobra"
)

// Cmd is the subscription command group
var Cmd = &cobra.Command{
	Use:     "subscription",
	Short:   "Manage subscriptions",
	Aliases: []string{"sub"},
	Long: `Start, inspect, reassign and terminate subscriptions.

A subscription is the caller's consent to be charged for a product. Its
initiator is the account allowed to trigger each charge.`,
}

func init() {
	Cmd.AddCommand(startCmd)
	Cmd.AddCommand(setupCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(dueCmd)
	Cmd.AddCommand(initiatorCmd)
	Cmd.AddCommand(terminateCmd)
}

func printSubscription(w io.Writer, s queries.SubscriptionDTO) {
	fmt.Fprintf(w, "Subscription %s\n", s.SubscriptionHash)
	fmt.Fprintf(w, "  status:      %s\n", s.Status)
	fmt.Fprintf(w, "  product:     %s\n", s.ProductHash)
	fmt.Fprintf(w, "  subscriber:  %s\n", s.Subscriber)
	fmt.Fprintf(w, "  initiator:   %s\n", s.Initiator)
	fmt.Fprintf(w, "  next charge: %s\n", cli.FormatTimestamp(s.NextChargeAt))
	fmt.Fprintf(w, "  payable until: %s\n", cli.FormatTimestamp(s.CollectibleUntil))
	if !s.MetadataHash.IsZero() {
		fmt.Fprintf(w, "  metadata:    %s\n", s.MetadataHash)
	}
}

func printRow(w io.Writer, s queries.SubscriptionDTO) {
	fmt.Fprintf(w, "%s  %-10s next %d  initiator %s\n", s.SubscriptionHash, s.Status, s.NextChargeAt, s.Initiator)
}
