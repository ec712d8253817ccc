package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultPurgeSchedule runs the reset token purge every 15 minutes
const DefaultPurgeSchedule = "*/15 * * * *"

// Scheduler periodically enqueues maintenance tasks
type Scheduler struct {
	client   Enqueuer
	cron     *cron.Cron
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler; an empty schedule selects DefaultPurgeSchedule
func NewScheduler(client Enqueuer, schedule string, logger *zap.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultPurgeSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}

	return &Scheduler{
		client:   client,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger,
	}, nil
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.enqueuePurge); err != nil {
		return fmt.Errorf("failed to schedule reset token purge: %w", err)
	}
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("purge_schedule", s.schedule))
	return nil
}

// Stop stops the cron loop and waits for running jobs
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info("Scheduler stopped")
}

// enqueuePurge schedules one purge; Unique keeps several worker replicas from stacking them
func (s *Scheduler) enqueuePurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	task := asynq.NewTask(TypePurgeResetTokens, nil)
	_, err := s.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.Unique(5*time.Minute),
	)
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		s.logger.Error("Failed to enqueue reset token purge", zap.Error(err))
		return
	}
	s.logger.Debug("Reset token purge enqueued")
}
