// Package tasks holds the background jobs of the backend: password reset mail delivery
// and the periodic purge of expired reset tokens. Jobs travel through asynq queues on Redis.
package tasks

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypePasswordResetEmail = "email:password_reset"
	TypePurgeResetTokens   = "maintenance:purge_reset_tokens"
)

// Queue names and their priorities
const (
	QueueImmediate = "immediate"
	QueueDefault   = "default"
)

// Queues returns the queue priority map used by the worker server
func Queues() map[string]int {
	return map[string]int{
		QueueImmediate: 5,
		QueueDefault:   1,
	}
}

// Enqueuer is the part of *asynq.Client used to schedule tasks
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PasswordResetPayload is the payload of a TypePasswordResetEmail task
type PasswordResetPayload struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
