package loyalty

import (
	"context"
	"errors"

	"loyalty-webhook-processor/pkg/config"
	"loyalty-webhook-processor/pkg/db"
	"loyalty-webhook-processor/pkg/metrics"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service is the loyalty engine: it computes points and performs the atomic
// award (balance increment + ledger entry) exactly once per event.
type Service struct {
	db           *gorm.DB
	node         *snowflake.Node
	pointsPer100 int64
	observer     *metrics.Observer
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Config   *config.Config
	Observer *metrics.Observer `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:           p.DB,
		node:         p.Node,
		pointsPer100: p.Config.Loyalty.PointsPer100,
		observer:     p.Observer,
	}
}

// CalculatePoints converts a payment amount in minor currency units into
// loyalty points. Integer arithmetic throughout; the award path is
// money-adjacent and must not round through floats.
func (s *Service) CalculatePoints(amount int64) int64 {
	return amount / 100 * s.pointsPer100
}

type ProcessResult struct {
	UserID        string `json:"userId"`
	PointsAwarded int64  `json:"pointsAwarded"`
	TotalPoints   int64  `json:"totalPoints"`
	TransactionID string `json:"transactionId"`
}

// ProcessEvent awards points for one payment event, idempotently. Redelivery
// of an already-processed event returns the recorded award without mutation,
// no matter how many times the job is retried or how deliveries interleave:
// the transaction table's unique event_id arbitrates concurrent executions.
func (s *Service) ProcessEvent(ctx context.Context, eventID, userID string, amount int64, eventType string) (*ProcessResult, error) {
	zapLog := zap.L().With(
		zap.String("event_id", eventID),
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
		zap.String("type", eventType),
	)
	zapLog.Info("processing payment event")

	if existing, err := s.findTransaction(ctx, eventID); err != nil {
		return nil, err
	} else if existing != nil {
		zapLog.Warn("duplicate event detected", zap.String("transaction_id", existing.ID.String()))
		return s.resultFrom(ctx, existing)
	}

	points := s.CalculatePoints(amount)
	txn := &Transaction{
		ID:      s.node.Generate(),
		EventID: eventID,
		UserID:  userID,
		Amount:  amount,
		Points:  points,
	}

	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lazy user creation; conflict-free so concurrent first awards for
		// the same user cannot fail here
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&User{ID: userID}).Error; err != nil {
			return err
		}

		// atomic increment, never read-modify-write
		if err := tx.Model(&User{}).
			Where("id = ?", userID).
			UpdateColumn("points", gorm.Expr("points + ?", points)).Error; err != nil {
			return err
		}

		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		var user User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		total = user.Points

		return nil
	})
	if err != nil {
		if db.IsDuplicateKey(err) {
			// a concurrent duplicate execution raced ahead; our increment
			// rolled back with the transaction, so return its award
			existing, ferr := s.findTransaction(ctx, eventID)
			if ferr != nil {
				return nil, ferr
			}
			if existing != nil {
				zapLog.Warn("concurrent duplicate lost the award race", zap.String("transaction_id", existing.ID.String()))
				return s.resultFrom(ctx, existing)
			}
		}
		return nil, err
	}

	if s.observer != nil {
		s.observer.PointsAwarded.Add(float64(points))
	}

	zapLog.Info("loyalty points awarded",
		zap.Int64("points_awarded", points),
		zap.Int64("total_points", total),
	)

	return &ProcessResult{
		UserID:        userID,
		PointsAwarded: points,
		TotalPoints:   total,
		TransactionID: txn.ID.String(),
	}, nil
}

func (s *Service) findTransaction(ctx context.Context, eventID string) (*Transaction, error) {
	var txn Transaction
	err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// resultFrom rebuilds the award response from the recorded transaction and
// the user's current balance, without any mutation.
func (s *Service) resultFrom(ctx context.Context, txn *Transaction) (*ProcessResult, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "id = ?", txn.UserID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return &ProcessResult{
		UserID:        txn.UserID,
		PointsAwarded: txn.Points,
		TotalPoints:   user.Points,
		TransactionID: txn.ID.String(),
	}, nil
}
