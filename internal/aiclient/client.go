// Package aiclient talks to the external image recognition backend.
//
// The backend is a best-effort collaborator: when it cannot be reached, or when the client
// is configured with FallbackOnly, every call degrades to a local answer instead of failing
// the user-facing request.
package aiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/braille"
	"github.com/brailletranslate/backend/internal/metrics"
)

// Operation labels
const (
	opHealth       = "health"
	opProcessImage = "process_image"
	opFeedback     = "feedback"
)

// Health status values
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
	StatusFallback    = "fallback"
)

// ErrUpstream is returned when the backend answered with an error status
var ErrUpstream = errors.New("ai backend returned an error")

// Config configures the client
type Config struct {
	BaseURL string
	Timeout time.Duration
	// FallbackOnly disables every network call and answers locally
	FallbackOnly bool
	// RetryCount applies to connection failures and 5xx responses
	RetryCount int
}

// HealthStatus describes the backend availability
type HealthStatus struct {
	Status   string `json:"status"`
	Fallback bool   `json:"fallback"`
}

// ImageResult is the recognition result of a Braille photograph
type ImageResult struct {
	RequestID  string  `json:"requestId"`
	Braille    string  `json:"braille"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback"`
	Message    string  `json:"message,omitempty"`
}

// FeedbackRequest rates a previous recognition
type FeedbackRequest struct {
	RequestID string `json:"requestId" validate:"required,max=64"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=1000"`
}

// FeedbackResult reports whether the feedback reached the backend
type FeedbackResult struct {
	Accepted bool `json:"accepted"`
	Fallback bool `json:"fallback"`
}

// Client is the AI backend client
type Client struct {
	http         *resty.Client
	fallbackOnly bool
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// New creates a new AI backend client. metrics may be nil.
func New(cfg Config, m *metrics.Metrics, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetRetryResetReaders(true).
		AddRetryCondition(retryCondition)

	return &Client{
		http:         httpClient,
		fallbackOnly: cfg.FallbackOnly || cfg.BaseURL == "",
		metrics:      m,
		logger:       logger,
	}
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	return r.StatusCode() >= http.StatusInternalServerError
}

// FallbackOnly reports whether the client answers locally without network calls
func (c *Client) FallbackOnly() bool {
	return c.fallbackOnly
}

// Health checks the backend. It never returns an error: failures are reported as a status.
func (c *Client) Health(ctx context.Context) HealthStatus {
	if c.fallbackOnly {
		return HealthStatus{Status: StatusFallback, Fallback: true}
	}

	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil || resp.IsError() {
		c.metrics.RecordAIRequest(opHealth, metrics.OutcomeFailure, time.Since(start))
		c.logger.Warn("ai backend health check failed", zap.Error(err))
		return HealthStatus{Status: StatusUnavailable, Fallback: true}
	}

	c.metrics.RecordAIRequest(opHealth, metrics.OutcomeSuccess, time.Since(start))
	return HealthStatus{Status: StatusOK}
}

// ProcessImage sends a photograph of Braille text for recognition.
// When the backend is unreachable it returns an empty fallback result so the user can
// enter the Braille manually.
func (c *Client) ProcessImage(ctx context.Context, filename string, image []byte) (*ImageResult, error) {
	if c.fallbackOnly {
		return imageFallback(), nil
	}

	start := time.Now()
	result := &ImageResult{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("image", filename, bytes.NewReader(image)).
		SetResult(result).
		Post("/process-image")
	if err != nil {
		c.metrics.RecordAIRequest(opProcessImage, metrics.OutcomeFallback, time.Since(start))
		c.logger.Warn("ai backend unreachable, using fallback", zap.String("operation", opProcessImage), zap.Error(err))
		return imageFallback(), nil
	}
	if resp.IsError() {
		c.metrics.RecordAIRequest(opProcessImage, metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	c.metrics.RecordAIRequest(opProcessImage, metrics.OutcomeSuccess, time.Since(start))
	if result.RequestID == "" {
		result.RequestID = uuid.NewString()
	}
	if result.Text == "" && result.Braille != "" {
		result.Text = braille.ToText(result.Braille)
	}
	return result, nil
}

// Feedback forwards a rating of a previous recognition. Unreachable backends are
// reported as a local, unaccepted result.
func (c *Client) Feedback(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error) {
	if c.fallbackOnly {
		c.logger.Info("ai feedback recorded locally", zap.String("request_id", req.RequestID), zap.Int("rating", req.Rating))
		return &FeedbackResult{Fallback: true}, nil
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/feedback")
	if err != nil {
		c.metrics.RecordAIRequest(opFeedback, metrics.OutcomeFallback, time.Since(start))
		c.logger.Warn("ai backend unreachable, feedback recorded locally",
			zap.String("request_id", req.RequestID),
			zap.Int("rating", req.Rating),
			zap.Error(err))
		return &FeedbackResult{Fallback: true}, nil
	}
	if resp.IsError() {
		c.metrics.RecordAIRequest(opFeedback, metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	c.metrics.RecordAIRequest(opFeedback, metrics.OutcomeSuccess, time.Since(start))
	return &FeedbackResult{Accepted: true}, nil
}

func imageFallback() *ImageResult {
	return &ImageResult{
		RequestID: uuid.NewString(),
		Fallback:  true,
		Message:   "image recognition is unavailable, enter the braille manually",
	}
}
