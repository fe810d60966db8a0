package webhook

import (
	"context"
	"time"

	"loyalty-webhook-processor/pkg/db"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the event ledger guard: it owns Event rows and is the only
// writer of their attempt/status bookkeeping.
type Service struct {
	db *gorm.DB
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB}
}

// Ingest inserts a pending Event row for eventID. The unique constraint on
// event_id is the sole concurrency guard: if the insert is rejected the event
// has been seen before and Ingest reports alreadyExists without further
// mutation. Callers must treat that as a successful no-op, not an error.
func (s *Service) Ingest(ctx context.Context, eventID, eventType string, payload []byte) (alreadyExists bool, err error) {
	event := &Event{
		EventID: eventID,
		Type:    eventType,
		Payload: datatypes.JSON(payload),
		Status:  StatusPending,
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		if db.IsDuplicateKey(err) {
			zap.L().Warn("duplicate event received", zap.String("event_id", eventID))
			return true, nil
		}
		return false, err
	}

	zap.L().Info("event stored", zap.String("event_id", eventID))
	return false, nil
}

// RecordAttempt increments the event's attempt counter and returns the new
// count. The increment is a single UPDATE so concurrent deliveries cannot
// lose updates.
func (s *Service) RecordAttempt(ctx context.Context, eventID string) (int, error) {
	if err := s.db.WithContext(ctx).
		Model(&Event{}).
		Where("event_id = ?", eventID).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
		return 0, err
	}

	var event Event
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return 0, err
	}

	return event.Attempts, nil
}

// MarkProcessed finalizes a successfully awarded event. processed is a
// terminal state; no edges leave it.
func (s *Service) MarkProcessed(ctx context.Context, eventID string) error {
	now := time.Now()
	return s.db.WithContext(ctx).
		Model(&Event{}).
		Where("event_id = ? AND status <> ?", eventID, StatusFailed).
		Updates(map[string]any{
			"status":       StatusProcessed,
			"processed_at": now,
		}).Error
}

// UpdateStatus records retry bookkeeping: pending while attempts remain under
// the cap, failed once the cap is reached. processed rows are never touched.
func (s *Service) UpdateStatus(ctx context.Context, eventID string, status EventStatus) error {
	return s.db.WithContext(ctx).
		Model(&Event{}).
		Where("event_id = ? AND status <> ?", eventID, StatusProcessed).
		UpdateColumn("status", status).Error
}

// Get returns the event record, read-only.
func (s *Service) Get(ctx context.Context, eventID string) (*Event, error) {
	var event Event
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}
