package webhook

import (
	"encoding/json"
	"time"

	"loyalty-webhook-processor/pkg/config"

	"github.com/hibiken/asynq"
)

const TypeProcessPayment = "payment:process"

type PaymentEventPayload struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProcessPaymentTask(p PaymentEventPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeProcessPayment, payload), nil
}

// TaskOptions builds the queue options for a payment task. The attempt cap
// counts total executions, so asynq's MaxRetry (retries after the first run)
// is cap-1. Completed tasks are kept briefly for observability; exhausted
// tasks land in the asynq archive with its longer default retention.
func TaskOptions(cfg *config.Config) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(cfg.Queue.Name),
		asynq.MaxRetry(cfg.Queue.MaxAttempts - 1),
		asynq.Retention(cfg.Queue.CompletedRetention),
	}
}
