package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/hibiken/asynq"
)

type enqueueCall struct {
	task *asynq.Task
	opts []asynq.Option
}

type mockEnqueuer struct {
	mu    sync.Mutex
	calls []enqueueCall
	err   error
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.calls = append(m.calls, enqueueCall{task: task, opts: opts})
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type(), Payload: task.Payload()}, nil
}

func (m *mockEnqueuer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type mockSender struct {
	sent []sentEmail
	err  error
}

func (m *mockSender) Send(to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

type mockCleaner struct {
	calledWith time.Time
	cleared    int
	err        error
}

func (m *mockCleaner) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int, error) {
	m.calledWith = now
	return m.cleared, m.err
}
