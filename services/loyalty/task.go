package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"loyalty-webhook-processor/pkg/config"
	"loyalty-webhook-processor/pkg/metrics"
	"loyalty-webhook-processor/services/webhook"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var TaskModule = fx.Module("task.loyalty",
	fx.Provide(NewTask),
	fx.Invoke(registerHandlers),
)

// Task drives one job through the award pipeline: persist the attempt,
// run the engine, finalize the event's status.
type Task struct {
	svc         *Service
	events      *webhook.Service
	maxAttempts int
	observer    *metrics.Observer
}

type TaskParams struct {
	fx.In
	Service  *Service
	Events   *webhook.Service
	Config   *config.Config
	Observer *metrics.Observer `optional:"true"`
}

func NewTask(p TaskParams) *Task {
	return &Task{
		svc:         p.Service,
		events:      p.Events,
		maxAttempts: p.Config.Queue.MaxAttempts,
		observer:    p.Observer,
	}
}

func registerHandlers(mux *asynq.ServeMux, task *Task) {
	mux.HandleFunc(webhook.TypeProcessPayment, task.HandleProcessPaymentTask)
}

// HandleProcessPaymentTask is the worker entry point for one delivery of a
// payment job. Failures are returned to asynq, which owns retry scheduling,
// backoff and archival; a crash mid-job is recovered by asynq's lease expiry
// redelivering the task, and the engine's idempotence makes that safe.
func (t *Task) HandleProcessPaymentTask(ctx context.Context, task *asynq.Task) error {
	var p webhook.PaymentEventPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		// an unparseable payload can never succeed; do not burn retries
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	start := time.Now()

	attempt, err := t.events.RecordAttempt(ctx, p.EventID)
	if err != nil {
		return err
	}

	zapLog := zap.L().With(
		zap.String("event_id", p.EventID),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", t.maxAttempts),
	)
	zapLog.Info("start processing job")

	result, err := t.svc.ProcessEvent(ctx, p.EventID, p.UserID, p.Amount, p.Type)
	if err != nil {
		status := webhook.StatusPending
		if attempt >= t.maxAttempts {
			status = webhook.StatusFailed
		}
		if serr := t.events.UpdateStatus(ctx, p.EventID, status); serr != nil {
			zapLog.Error("failed to record event status", zap.Error(serr))
		}

		t.observe("failed", start)
		zapLog.Error("job processing failed", zap.String("status", string(status)), zap.Error(err))

		// re-raise so the queue's own retry/backoff bookkeeping takes over
		return err
	}

	if err := t.events.MarkProcessed(ctx, p.EventID); err != nil {
		// redelivery will retry the finalization; the award itself is
		// already idempotent
		return err
	}

	t.observe("success", start)
	zapLog.Info("job completed",
		zap.String("user_id", result.UserID),
		zap.Int64("points_awarded", result.PointsAwarded),
		zap.Int64("total_points", result.TotalPoints),
	)

	return nil
}

func (t *Task) observe(status string, start time.Time) {
	if t.observer == nil {
		return
	}
	t.observer.JobProcessingDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}
