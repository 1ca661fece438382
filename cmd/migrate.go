package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage history database migrations",
	Long:  `Manage schema migrations of the workspace history database.`,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied migrations",
	Long:  `Show a list of all applied database migrations.`,
	Args:  cobra.NoArgs,
	RunE:  runMigrateStatus,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Long:  `Apply all pending database migrations. This happens automatically when the history is opened, but can be run manually if needed.`,
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback the last migration",
	Long:  `Rollback the most recently applied database migration.`,
	Args:  cobra.NoArgs,
	RunE:  runMigrateRollback,
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateRollbackCmd)
}

var errNoHistory = errors.New("history is not available (no workspace, or [history] enabled = false)")

func runMigrateStatus(cmd *cobra.Command, args []string) error {
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

	versions, err := store.AppliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	if len(versions) == 0 {
		fmt.Println("No migrations applied.")
		return nil
	}

	fmt.Printf("Applied migrations (%d):\n", len(versions))
	for _, version := range versions {
		fmt.Printf("  %s\n", version)
	}

	return nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	proj, err := openProject(ctx)
	if err != nil {
		return err
	}
	defer proj.Close()

	// Opening the store applies pending migrations.
	store, err := proj.History(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errNoHistory
	}

	fmt.Println("Migrations applied successfully.")
	return nil
}

func runMigrateRollback(cmd *cobra.Command, args []string) error {
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

	if err := store.Rollback(ctx); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	fmt.Println("Rolled back the last migration.")
	return nil
}
