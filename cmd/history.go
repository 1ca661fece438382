package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/newhook/swereview/internal/history"
	"github.com/newhook/swereview/internal/render"
	"github.com/spf13/cobra"
)

var (
	flagHistoryLimit  int
	flagHistoryShow   string
	flagHistoryPrune  time.Duration
	flagHistoryFailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded analysis runs",
	Long: `List the analysis runs recorded in the workspace, newest first.

--show prints the JSON report of one run (a unique id prefix is enough).
--prune deletes runs older than the given age, e.g. --prune 720h.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().StringVar(&flagHistoryShow, "show", "", "print the report of the run with this id")
	historyCmd.Flags().DurationVar(&flagHistoryPrune, "prune", 0, "delete runs older than this age")
	historyCmd.Flags().BoolVar(&flagHistoryFailed, "problems", false, "list only runs that violated a rule")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	proj, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer proj.Close()

	store, err := proj.History(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errNoHistory
	}

	if flagHistoryPrune > 0 {
		n, err := store.Delete(ctx, time.Now().Add(-flagHistoryPrune))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d run(s)\n", n)
		return nil
	}

	if flagHistoryShow != "" {
		run, err := store.Get(ctx, flagHistoryShow)
		if err != nil {
			if errors.Is(err, history.ErrNotFound) {
				return fmt.Errorf("no run with id %s", flagHistoryShow)
			}
			return err
		}
		fmt.Println(run.Report)
		return nil
	}

	runs, err := store.List(ctx, flagHistoryLimit)
	if err != nil {
		return err
	}
	if flagHistoryFailed {
		filtered := runs[:0]
		for _, r := range runs {
			if r.HasProblems {
				filtered = append(filtered, r)
			}
		}
		runs = filtered
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	render.Runs(os.Stdout, runs, terminalWidth())
	return nil
}
