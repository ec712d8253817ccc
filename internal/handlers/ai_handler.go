package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/brailletranslate/backend/internal/aiclient"
)

// MaxImageSize bounds uploaded Braille photographs
const MaxImageSize = 10 << 20 // 10MB

// AIClient is the interface that wraps the image recognition backend
type AIClient interface {
	// Method Health reports backend availability; it never fails.
	Health(ctx context.Context) aiclient.HealthStatus
	// Method ProcessImage recognizes Braille in a photograph.
	//
	// An unreachable backend yields a fallback result, not an error.
	// If the backend answers with an error status, aiclient.ErrUpstream is returned.
	ProcessImage(ctx context.Context, filename string, image []byte) (*aiclient.ImageResult, error)
	// Method Feedback forwards a rating of a previous recognition.
	Feedback(ctx context.Context, req aiclient.FeedbackRequest) (*aiclient.FeedbackResult, error)
}

// AIHandler handles image recognition requests
type AIHandler struct {
	BaseHandler
	client AIClient
}

// NewAIHandler creates a new AI handler
func NewAIHandler(client AIClient, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		BaseHandler: BaseHandler{Logger: logger},
		client:      client,
	}
}

// RegisterRoutes registers AI handler routes
// Note: This assumes the router is already scoped to /api
func (h *AIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/ai", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/process-image", h.ProcessImage)
		r.Post("/feedback", h.Feedback)
	})
}

// Health handles GET /ai/health
func (h *AIHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, h.client.Health(r.Context()))
}

// ProcessImage handles POST /ai/process-image (multipart field "image")
func (h *AIHandler) ProcessImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		h.Logger.Error("failed to read uploaded image", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if len(image) == 0 {
		h.RespondError(w, http.StatusBadRequest, "image is required")
		return
	}
	if len(image) > MaxImageSize {
		h.RespondError(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}
	if !strings.HasPrefix(http.DetectContentType(image), "image/") {
		h.RespondError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	result, err := h.client.ProcessImage(r.Context(), header.Filename, image)
	if err != nil {
		h.respondUpstreamError(w, "process image", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// Feedback handles POST /ai/feedback
func (h *AIHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req aiclient.FeedbackRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.client.Feedback(r.Context(), req)
	if err != nil {
		h.respondUpstreamError(w, "feedback", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

func (h *AIHandler) respondUpstreamError(w http.ResponseWriter, operation string, err error) {
	if errors.Is(err, aiclient.ErrUpstream) {
		h.Logger.Warn("ai backend rejected request", zap.String("operation", operation), zap.Error(err))
		h.RespondError(w, http.StatusBadGateway, "image recognition failed")
		return
	}
	h.RespondServiceError(w, operation, err)
}
