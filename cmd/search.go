package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/render"
	"github.com/newhook/swereview/internal/search"
	"github.com/spf13/cobra"
)

var (
	flagSearchStage   string
	flagSearchContext int
	flagSearchMatch   int
)

var searchCmd = &cobra.Command{
	Use:   "search <dir> <test>",
	Short: "Show the log lines that mention a test",
	Long: `Print every line of the stage logs that contains the test name, with
surrounding context. --stage limits the output to one stage; --match selects
one match of that stage (1-based, wrapping around).`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&flagSearchStage, "stage", "s", "", "stage to search (base, before, after, agent)")
	searchCmd.Flags().IntVarP(&flagSearchContext, "context", "C", -1, "context lines around each match (default: from config)")
	searchCmd.Flags().IntVarP(&flagSearchMatch, "match", "m", 0, "show only the n-th match of --stage")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	dir, name := args[0], args[1]

	proj, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer proj.Close()

	contextLines := flagSearchContext
	if contextLines < 0 {
		contextLines = proj.Config.Search.GetContextLines()
	}

	stages := logparser.Stages[:]
	if flagSearchStage != "" {
		stage, err := logparser.ParseStage(flagSearchStage)
		if err != nil {
			return err
		}
		stages = []logparser.Stage{stage}
	} else if flagSearchMatch != 0 {
		return errors.New("--match requires --stage")
	}

	_, result, err := analyzeDir(ctx, proj, dir, false)
	if err != nil {
		return err
	}
	res := result.Search(name, contextLines)

	width := terminalWidth()
	if flagSearchMatch != 0 {
		matches := res[stages[0]]
		if len(matches) == 0 {
			return fmt.Errorf("no %s line mentions %s", stages[0], name)
		}
		cur := selectMatch(len(matches), flagSearchMatch)
		fmt.Printf("%s match %d/%d\n", stages[0], cur.Pos()+1, cur.Len())
		render.MatchBlock(os.Stdout, "> ", name, matches[cur.Pos()], width)
		return nil
	}

	for i, stage := range stages {
		if i > 0 {
			fmt.Println()
		}
		render.Matches(os.Stdout, name, stage, res[stage], -1, width)
	}
	if v := result.Violations(name); v.Any() {
		fmt.Println()
		fmt.Printf("%s is involved in violated rules: %v\n", name, v.Rules)
	}
	return nil
}

// selectMatch maps a 1-based match number onto a cursor. Numbers wrap, and
// negative numbers count from the end.
func selectMatch(n, number int) search.Cursor {
	if number > 0 {
		return search.At(n, number-1)
	}
	return search.At(n, number)
}
