package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/beaver/pkg/observability"
	"github.com/spf13/cobra"
)

var (
	callerFlag string
	jsonOutput bool
	verbose    bool
	logger     *slog.Logger
)

type startedAtKey struct{}

var rootCmd = &cobra.Command{
	Use:   "beaver",
	Short: "Beaver - recurring token payments router",
	Long: `Beaver registers subscription products, records subscriber consent and
collects each charge once per period, splitting it between the merchant,
the initiator that triggered it and the protocol treasury.

Commands act as the account given by --as (or BEAVER_CALLER).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger = observability.NewLogger(observability.LogConfig{Level: "debug", Service: "beaver", Version: Version})
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = observability.WithCorrelationID(ctx, "")
		if callerFlag != "" {
			ctx = observability.WithCaller(ctx, callerFlag)
		}
		cmd.SetContext(context.WithValue(ctx, startedAtKey{}, time.Now()))
		Logger().DebugContext(ctx, "command start", "command", cmd.CommandPath())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		started, ok := cmd.Context().Value(startedAtKey{}).(time.Time)
		if !ok {
			return
		}
		Logger().DebugContext(cmd.Context(), "command end",
			"command", cmd.CommandPath(),
			observability.DurationKey, time.Since(started).Milliseconds(),
		)
	},
}

// Execute runs the command line and exits with ExitCode on failure.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&callerFlag, "as", os.Getenv("BEAVER_CALLER"), "account address to act as")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// Logger returns the CLI logger, slog.Default until SetLogger is called.
func Logger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
