package cmd

import (
	"context"

	"github.com/newhook/swereview/internal/logging"
	swsignal "github.com/newhook/swereview/internal/signal"
	"github.com/spf13/cobra"
)

var (
	// rootCtx holds the signal-cancellable context for the application
	rootCtx    context.Context
	rootCancel context.CancelFunc

	// flagProject overrides workspace discovery
	flagProject string
)

var rootCmd = &cobra.Command{
	Use:   "swereview",
	Short: "Review SWE task deliverables for validity",
	Long: `swereview checks a task deliverable (a test manifest plus the base, before,
after and post-agent-patch test logs) against the rules a valid task must satisfy,
and helps locate every log line that mentions a given test.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Create a cancellable context with signal handling
		rootCtx, rootCancel = swsignal.WithSignalCancel(context.Background())
		logging.Debug("command started", "command", cmd.CommandPath(), "args", args)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Clean up the signal handler
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logging.Error("command failed", "error", err)
	}
	return err
}

// GetContext returns the root context that is cancelled on SIGINT/SIGTERM.
// This should be used by all subcommands instead of context.Background().
func GetContext() context.Context {
	if rootCtx == nil {
		return context.Background()
	}
	return rootCtx
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "workspace directory (default: auto-detect from cwd)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(migrateCmd)
}
