package token

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/assets/application/commands"
	"github.com/spf13/cobra"
)

var (
	mintToken  string
	mintTo     string
	mintAmount string
)

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Credit tokens to an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		req := commands.MintCommand{}
		if req.Token, err = cli.ParseAddress("token", mintToken); err != nil {
			return err
		}
		if req.To, err = cli.ParseAddress("to", mintTo); err != nil {
			return err
		}
		if req.Amount, err = cli.ParseAmount("amount", mintAmount); err != nil {
			return err
		}

		result, err := app.Mint.Handle(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("mint failed: %w", err)
		}
		return cli.Render(cmd, map[string]any{"balance": result.Balance}, func(w io.Writer) {
			fmt.Fprintf(w, "Minted %s to %s (balance %s)\n", req.Amount, req.To, result.Balance)
		})
	},
}

func init() {
	mintCmd.Flags().StringVar(&mintToken, "token", "", "token address")
	mintCmd.Flags().StringVar(&mintTo, "to", "", "receiving account")
	mintCmd.Flags().StringVar(&mintAmount, "amount", "", "amount in token base units")
	_ = mintCmd.MarkFlagRequired("token")
	_ = mintCmd.MarkFlagRequired("to")
	_ = mintCmd.MarkFlagRequired("amount")
}
