package cmd

import (
	"fmt"

	"github.com/newhook/swereview/internal/review"
	"github.com/newhook/swereview/internal/tui"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse <dir> <test>",
	Short: "Browse the log lines that mention a test",
	Long: `Open an interactive browser over every log line that mentions the test.

Keys: n/p next and previous match, tab/shift+tab switch stage, +/- change
the context, ? help, q quit. Stage tabs are clickable.`,
	Args: cobra.ExactArgs(2),
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	dir, name := args[0], args[1]

	proj, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer proj.Close()

	d, result, err := analyzeDir(ctx, proj, dir, false)
	if err != nil {
		return err
	}
	if _, ok := result.Row(name); !ok {
		fmt.Printf("Note: %s is not declared in the manifest\n", name)
	}

	session := review.NewSession(result, d.Digest, nil, proj.Config.Cache.GetTTL())
	sel, err := tui.Run(session, name, proj.Config.Search.GetContextLines(), nil)
	if err != nil {
		return fmt.Errorf("error running browser: %w", err)
	}
	fmt.Printf("Last position: %s match %d (swereview search --stage %s --match %d)\n",
		sel.Stage, sel.Match+1, sel.Stage, sel.Match+1)
	return nil
}
