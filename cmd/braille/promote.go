package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/brailletranslate/backend/internal/logger"
	"github.com/brailletranslate/backend/internal/repositories"
	"github.com/brailletranslate/backend/internal/services"
)

// NewPromoteCmd creates the promote subcommand.
func NewPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <username>",
		Short: "Grant the admin role to an account",
		Long: `Grant the admin role to an existing account. Used to bootstrap the first admin
without distributing the admin registration code.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := context.Background()
			db, err := openDatabase(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer db.Close()

			adminService := services.NewAdminService(repositories.NewAccountRepository(db), logger.Logger)
			account, err := adminService.PromoteByUsername(ctx, args[0])
			if err != nil {
				return err
			}

			cmd.Printf("%s (%s) is now an admin\n", account.Username, account.ID)
			return nil
		},
	}
}
