package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/brailletranslate/backend/internal/config"
	"github.com/brailletranslate/backend/internal/database"
	"github.com/brailletranslate/backend/internal/logger"
)

// NewRootCmd creates the root command of the backend CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "braille",
		Short: "Braille ↔ Spanish translator backend",
		Long: `Backend of the Braille ↔ Spanish translator: the HTTP API with session
and role based access control, the background mail worker and admin tooling.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewWorkerCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewPromoteCmd())
	cmd.AddCommand(NewRoutesCmd())

	return cmd
}

// loadRuntime loads the configuration and initializes the process logger
func loadRuntime() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// openDatabase connects to MySQL, optionally applying pending migrations
func openDatabase(ctx context.Context, cfg *config.Config, migrate bool) (*sql.DB, error) {
	db, err := database.Connect(ctx, cfg.DSN(), logger.Logger)
	if err != nil {
		return nil, err
	}

	if migrate {
		if err := database.RunMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

func redisClientOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
