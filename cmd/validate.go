package cmd

import (
	"errors"
	"fmt"

	"github.com/newhook/swereview/internal/deliverable"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Check a deliverable's layout",
	Long: `Check that dir holds a manifest (<instance>.json, or a single json under main/)
and a logs directory with one file for each of the _base.log, _before.log,
_after.log and _post_agent_patch.log suffixes.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	problems := deliverable.Validate(appFs, args[0])
	if len(problems) == 0 {
		fmt.Println("Deliverable layout is valid")
		return nil
	}

	fmt.Printf("Found %d problem(s):\n", len(problems))
	for _, p := range problems {
		fmt.Printf("  - %s\n", p)
	}
	return errors.New("invalid deliverable layout")
}
