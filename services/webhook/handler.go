package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"loyalty-webhook-processor/pkg/config"
	"loyalty-webhook-processor/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const SignatureHeader = "x-webhook-signature"

// Enqueuer is the part of *asynq.Client the handler uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Handler struct {
	cfg      *config.Config
	svc      *Service
	queue    Enqueuer
	observer *metrics.Observer
}

type HandlerParams struct {
	fx.In
	Config   *config.Config
	Service  *Service
	Queue    Enqueuer
	Observer *metrics.Observer
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		cfg:      p.Config,
		svc:      p.Service,
		queue:    p.Queue,
		observer: p.Observer,
	}
}

type paymentRequest struct {
	EventID   string    `json:"eventId" binding:"required"`
	Type      string    `json:"type" binding:"required"`
	UserID    string    `json:"userId" binding:"required"`
	Amount    int64     `json:"amount" binding:"required,gt=0"`
	Currency  string    `json:"currency" binding:"required,len=3"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
}

type paymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EventID string `json:"eventId,omitempty"`
	JobID   string `json:"jobId,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandlePayment ingests one payment notification. Authentication and
// validation failures are rejected here and never reach the queue.
func (h *Handler) HandlePayment(c *gin.Context) {
	signature := c.GetHeader(SignatureHeader)
	if signature == "" {
		zap.L().Warn("webhook request without signature")
		h.observer.WebhookRequests.WithLabelValues("unauthorized").Inc()
		c.JSON(http.StatusUnauthorized, errorResponse{
			Error:   "MISSING_SIGNATURE",
			Message: "Webhook signature is required",
		})
		return
	}

	// the raw transmitted bytes are what the sender signed; capture them
	// before any parsing
	raw, err := c.GetRawData()
	if err != nil {
		h.observer.WebhookRequests.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   "INTERNAL_ERROR",
			Message: "Failed to process webhook",
		})
		return
	}

	if !VerifySignature(raw, signature, h.cfg.Webhook.Secret) {
		zap.L().Warn("invalid webhook signature", zap.String("signature", signature))
		h.observer.WebhookRequests.WithLabelValues("unauthorized").Inc()
		c.JSON(http.StatusUnauthorized, errorResponse{
			Error:   "INVALID_SIGNATURE",
			Message: "Webhook signature verification failed",
		})
		return
	}

	var req paymentRequest
	err = json.Unmarshal(raw, &req)
	if err == nil {
		err = binding.Validator.ValidateStruct(&req)
	}
	if err != nil {
		zap.L().Warn("invalid webhook payload", zap.Error(err))
		h.observer.WebhookRequests.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   "INVALID_PAYLOAD",
			Message: "Invalid webhook payload format",
		})
		return
	}

	alreadyExists, err := h.svc.Ingest(c.Request.Context(), req.EventID, req.Type, raw)
	if err != nil {
		zap.L().Error("failed to store event", zap.String("event_id", req.EventID), zap.Error(err))
		h.observer.WebhookRequests.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   "INTERNAL_ERROR",
			Message: "Failed to process webhook",
		})
		return
	}

	if alreadyExists {
		h.observer.WebhookRequests.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusOK, paymentResponse{
			Success: true,
			Message: "Event already received and processed",
			EventID: req.EventID,
		})
		return
	}

	task, err := NewProcessPaymentTask(PaymentEventPayload{
		EventID:   req.EventID,
		Type:      req.Type,
		UserID:    req.UserID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Timestamp: req.Timestamp,
	})
	if err == nil {
		var info *asynq.TaskInfo
		info, err = h.queue.EnqueueContext(c.Request.Context(), task, TaskOptions(h.cfg)...)
		if err == nil {
			zap.L().Info("job enqueued",
				zap.String("event_id", req.EventID),
				zap.String("job_id", info.ID),
			)
			h.observer.WebhookRequests.WithLabelValues("accepted").Inc()
			c.JSON(http.StatusAccepted, paymentResponse{
				Success: true,
				Message: "Event received and queued for processing",
				EventID: req.EventID,
				JobID:   info.ID,
			})
			return
		}
	}

	zap.L().Error("failed to enqueue job", zap.String("event_id", req.EventID), zap.Error(err))
	h.observer.WebhookRequests.WithLabelValues("error").Inc()
	c.JSON(http.StatusInternalServerError, errorResponse{
		Error:   "INTERNAL_ERROR",
		Message: "Failed to process webhook",
	})
}
