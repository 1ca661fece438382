package cmd

import (
	"fmt"
	"os"

	"github.com/newhook/swereview/internal/logging"
	"github.com/newhook/swereview/internal/render"
	"github.com/spf13/cobra"
)

var (
	flagAnalyzeJSON       bool
	flagAnalyzeNoHistory  bool
	flagAnalyzeSequential bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dir>",
	Short: "Run the validity rules over a deliverable",
	Long: `Parse the four stage logs and the manifest of the deliverable at dir, evaluate
rules C1 to C7 and print the verdict with the per-test status matrix.

Inside a workspace the run is recorded in the history unless --no-history is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagAnalyzeJSON, "json", false, "print the report as JSON")
	analyzeCmd.Flags().BoolVar(&flagAnalyzeNoHistory, "no-history", false, "do not record the run")
	analyzeCmd.Flags().BoolVar(&flagAnalyzeSequential, "sequential", false, "parse and evaluate on a single goroutine")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	proj, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer proj.Close()

	d, result, err := analyzeDir(ctx, proj, args[0], flagAnalyzeSequential)
	if err != nil {
		return err
	}

	if !flagAnalyzeNoHistory {
		if _, err := recordRun(ctx, proj, d, result); err != nil {
			logging.Warn("failed to record run", "error", err)
			fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
		}
	}

	if flagAnalyzeJSON {
		data, err := result.JSON()
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	render.Result(os.Stdout, d.Instance, result, terminalWidth())
	return nil
}
