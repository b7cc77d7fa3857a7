package token

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/assets/application/commands"
	"github.com/spf13/cobra"
)

var (
	approveToken   string
	approveSpender string
	approveAmount  string
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Allow a spender to pull the caller's tokens",
	Long: `Set the allowance of --spender over the caller's tokens. Without --spender
the router's custody account is approved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		owner, err := cli.CallerAddress()
		if err != nil {
			return err
		}
		req := commands.ApproveCommand{Owner: owner}
		if req.Token, err = cli.ParseAddress("token", approveToken); err != nil {
			return err
		}
		if req.Spender, err = cli.ParseAddress("spender", approveSpender); err != nil {
			return err
		}
		if req.Spender.IsZero() {
			req.Spender = app.Params.Custody
		}
		if req.Amount, err = cli.ParseAmount("amount", approveAmount); err != nil {
			return err
		}

		if _, err := app.Approve.Handle(cmd.Context(), req); err != nil {
			return fmt.Errorf("approve failed: %w", err)
		}
		return cli.Render(cmd, map[string]any{
			"owner":     req.Owner,
			"spender":   req.Spender,
			"allowance": req.Amount,
		}, func(w io.Writer) {
			fmt.Fprintf(w, "%s may now spend %s of %s's tokens\n", req.Spender, req.Amount, req.Owner)
		})
	},
}

func init() {
	approveCmd.Flags().StringVar(&approveToken, "token", "", "token address")
	approveCmd.Flags().StringVar(&approveSpender, "spender", "", "spender account (default: router custody)")
	approveCmd.Flags().StringVar(&approveAmount, "amount", "", "allowance in token base units")
	_ = approveCmd.MarkFlagRequired("token")
	_ = approveCmd.MarkFlagRequired("amount")
}
