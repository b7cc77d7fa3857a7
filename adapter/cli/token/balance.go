package token

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/assets/application/queries"
	"github.com/spf13/cobra"
)

var (
	balanceToken   string
	balanceAccount string
	balanceSpender string
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show an account's balance and optional allowance",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		q := queries.GetBalanceQuery{}
		if q.Token, err = cli.ParseAddress("token", balanceToken); err != nil {
			return err
		}
		if q.Account, err = cli.ParseAddress("account", balanceAccount); err != nil {
			return err
		}
		if q.Account.IsZero() {
			if q.Account, err = cli.CallerAddress(); err != nil {
				return err
			}
		}
		if q.Spender, err = cli.ParseAddress("spender", balanceSpender); err != nil {
			return err
		}

		b, err := app.GetBalance.Handle(cmd.Context(), q)
		if err != nil {
			return err
		}
		return cli.Render(cmd, b, func(w io.Writer) {
			fmt.Fprintf(w, "%s holds %s of %s\n", b.Account, b.Balance, b.Token)
			if b.Spender != nil && b.Allowance != nil {
				fmt.Fprintf(w, "  allowance for %s: %s\n", *b.Spender, *b.Allowance)
			}
		})
	},
}

func init() {
	balanceCmd.Flags().StringVar(&balanceToken, "token", "", "token address")
	balanceCmd.Flags().StringVar(&balanceAccount, "account", "", "account address (default: caller)")
	balanceCmd.Flags().StringVar(&balanceSpender, "spender", "", "also show the allowance for this spender")
	_ = balanceCmd.MarkFlagRequired("token")
}
