package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const resetEmailMaxRetry = 5

// ResetMailer schedules password reset emails on the immediate queue
type ResetMailer struct {
	client Enqueuer
	logger *zap.Logger
}

// NewResetMailer creates a new reset mailer
func NewResetMailer(client Enqueuer, logger *zap.Logger) *ResetMailer {
	return &ResetMailer{
		client: client,
		logger: logger,
	}
}

// NotifyPasswordReset enqueues the reset email. The task expires together with the token,
// so a backlog never delivers a dead link.
func (m *ResetMailer) NotifyPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error {
	payload, err := json.Marshal(PasswordResetPayload{
		Email:     email,
		Token:     token,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reset email payload: %w", err)
	}

	task := asynq.NewTask(TypePasswordResetEmail, payload)
	info, err := m.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueImmediate),
		asynq.MaxRetry(resetEmailMaxRetry),
		asynq.Deadline(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue reset email: %w", err)
	}

	m.logger.Debug("Reset email enqueued", zap.String("task_id", info.ID))
	return nil
}
