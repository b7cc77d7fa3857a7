package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check storage and broker connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := RequireApp()
		if err != nil {
			return err
		}

		report := a.Health.Check(cmd.Context())
		names := make([]string, 0, len(report.Checks))
		for name := range report.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		err = Render(cmd, report, func(w io.Writer) {
			fmt.Fprintf(w, "backend: %s (%s)\n", a.Backend, report.Status)
			for _, name := range names {
				c := report.Checks[name]
				fmt.Fprintf(w, "  %-10s %s", name, c.Status)
				if c.Message != "" {
					fmt.Fprintf(w, " (%s)", c.Message)
				}
				fmt.Fprintln(w)
			}
		})
		if err != nil {
			return err
		}
		if !report.Ready() {
			return fmt.Errorf("router is %s", report.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
