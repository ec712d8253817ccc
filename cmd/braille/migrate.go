package main

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/brailletranslate/backend/internal/database"
	"github.com/brailletranslate/backend/internal/logger"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the MySQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(cmd *cobra.Command, db *sql.DB) error {
				cmd.Println("Running migrations...")
				if err := database.RunMigrations(db); err != nil {
					return err
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	}

	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateVersionCmd())

	return cmd
}

func newMigrateDownCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(cmd *cobra.Command, db *sql.DB) error {
				if err := database.RollbackMigrations(db, steps); err != nil {
					return err
				}
				cmd.Printf("Rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	return cmd
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(cmd *cobra.Command, db *sql.DB) error {
				version, dirty, err := database.MigrationVersion(db)
				if err != nil {
					return err
				}
				if dirty {
					cmd.Printf("version %d (dirty)\n", version)
					return nil
				}
				cmd.Printf("version %d\n", version)
				return nil
			})
		},
	}
}

// withDatabase loads the runtime, connects without migrating and runs fn
func withDatabase(cmd *cobra.Command, fn func(cmd *cobra.Command, db *sql.DB) error) error {
	cfg, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := openDatabase(context.Background(), cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(cmd, db)
}
