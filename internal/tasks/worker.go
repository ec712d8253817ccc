package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// Sender delivers a single email
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// ResetTokenCleaner removes reset tokens that expired before now
type ResetTokenCleaner interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int, error)
}

// SMTPSender sends emails through an SMTP server
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send sends an HTML email
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := mail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// Worker processes background tasks
type Worker struct {
	sender   Sender
	cleaner  ResetTokenCleaner
	resetURL string
	logger   *zap.Logger
	now      func() time.Time
}

// NewWorker creates a new worker
func NewWorker(sender Sender, cleaner ResetTokenCleaner, resetURL string, logger *zap.Logger) *Worker {
	return &Worker{
		sender:   sender,
		cleaner:  cleaner,
		resetURL: resetURL,
		logger:   logger,
		now:      time.Now,
	}
}

// Register binds the worker handlers to the mux
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypePasswordResetEmail, w.HandlePasswordResetEmail)
	mux.HandleFunc(TypePurgeResetTokens, w.HandlePurgeResetTokens)
}

// HandlePasswordResetEmail sends the reset link to the account email
func (w *Worker) HandlePasswordResetEmail(ctx context.Context, t *asynq.Task) error {
	var payload PasswordResetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal reset email payload: %w", asynq.SkipRetry)
	}
	if payload.Email == "" || payload.Token == "" {
		return fmt.Errorf("reset email payload is incomplete: %w", asynq.SkipRetry)
	}
	if !payload.ExpiresAt.IsZero() && !w.now().Before(payload.ExpiresAt) {
		w.logger.Info("Skipping reset email for expired token")
		return nil
	}

	link, err := ResetLink(w.resetURL, payload.Token)
	if err != nil {
		return fmt.Errorf("failed to build reset link: %v: %w", err, asynq.SkipRetry)
	}

	body := fmt.Sprintf(
		`<p>Recibimos una solicitud para restablecer tu contraseña.</p>`+
			`<p><a href="%s">Restablecer contraseña</a></p>`+
			`<p>El enlace caduca el %s (UTC). Si no fuiste tú, ignora este mensaje.</p>`,
		html.EscapeString(link),
		payload.ExpiresAt.UTC().Format("2006-01-02 15:04"),
	)

	if err := w.sender.Send(payload.Email, "Restablecer contraseña", body); err != nil {
		w.logger.Error("Failed to send reset email", zap.Error(err))
		return err
	}

	w.logger.Info("Reset email sent")
	return nil
}

// HandlePurgeResetTokens clears every expired reset token
func (w *Worker) HandlePurgeResetTokens(ctx context.Context, t *asynq.Task) error {
	cleared, err := w.cleaner.ClearExpiredResetTokens(ctx, w.now())
	if err != nil {
		w.logger.Error("Failed to purge expired reset tokens", zap.Error(err))
		return fmt.Errorf("failed to purge expired reset tokens: %w", err)
	}

	w.logger.Info("Expired reset tokens purged", zap.Int("cleared", cleared))
	return nil
}

// ResetLink appends the token to the reset page URL
func ResetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("reset url %q is not absolute", base)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
