package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/newhook/swereview/internal/project"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a workspace",
	Long: `Create a workspace in dir (default: the current directory).

A workspace holds .swereview/config.toml, the run history and the debug log.
Commands run anywhere below it pick it up.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	proj, err := project.Create(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	defer proj.Close()

	fmt.Printf("Workspace '%s' created\n", proj.Config.Workspace.Name)
	fmt.Printf("  Config: %s\n", filepath.Join(proj.Root, project.ConfigDir, project.ConfigFile))
	return nil
}
