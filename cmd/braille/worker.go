package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/logger"
	"github.com/brailletranslate/backend/internal/repositories"
	"github.com/brailletranslate/backend/internal/tasks"
)

const workerConcurrency = 10

// NewWorkerCmd creates the worker subcommand.
func NewWorkerCmd() *cobra.Command {
	var purgeSchedule string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start the background worker",
		Long: `Start the background worker: it delivers password reset emails over SMTP and
periodically purges expired reset tokens.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(purgeSchedule)
		},
	}

	cmd.Flags().StringVar(&purgeSchedule, "purge-schedule", tasks.DefaultPurgeSchedule, "cron schedule of the expired reset token purge")

	return cmd
}

func runWorker(purgeSchedule string) error {
	cfg, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Logger.Info("Starting Braille worker")

	db, err := openDatabase(ctx, cfg, false)
	if err != nil {
		logger.Logger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	defer db.Close()

	redisOpt := redisClientOpt(cfg)

	client := asynq.NewClient(redisOpt)
	defer client.Close()

	scheduler, err := tasks.NewScheduler(client, purgeSchedule, logger.Logger)
	if err != nil {
		return err
	}

	worker := tasks.NewWorker(
		tasks.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From),
		repositories.NewAccountRepository(db),
		cfg.Reset.URL,
		logger.Logger,
	)
	mux := asynq.NewServeMux()
	worker.Register(mux)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: workerConcurrency,
		Queues:      tasks.Queues(),
		Logger:      logger.Logger.Sugar(),
	})
	if err := srv.Start(mux); err != nil {
		logger.Logger.Error("Failed to start worker server", zap.Error(err))
		return fmt.Errorf("failed to start worker server: %w", err)
	}

	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return err
	}

	<-ctx.Done()
	logger.Logger.Info("Shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	srv.Shutdown()

	logger.Logger.Info("Worker exited")
	return nil
}
