package transaction

import (
	"net/http"
	"strconv"
	"time"

	"loyalty-webhook-processor/pkg/errutil"
	"loyalty-webhook-processor/services/loyalty"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const maxPageSize = 1000

// Service serves the read-only transaction listing. It never mutates core
// state.
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

type transactionResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	Amount    int64     `json:"amount"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

type listResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

func (s *Service) ListTransactions(c *gin.Context) {
	limit, lerr := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, oerr := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if lerr != nil || oerr != nil || limit < 1 || offset < 0 {
		c.Error(errutil.BadRequest("Invalid limit or offset parameters", nil))
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := s.db.WithContext(c.Request.Context()).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)

	if userID := c.Query("userId"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var results []loyalty.Transaction
	if err := query.Find(&results).Error; err != nil {
		c.Error(errutil.Internal("Failed to fetch transactions", err))
		return
	}

	out := make([]transactionResponse, 0, len(results))
	for _, t := range results {
		out = append(out, transactionResponse{
			ID:        t.ID.String(),
			EventID:   t.EventID,
			UserID:    t.UserID,
			Amount:    t.Amount,
			Points:    t.Points,
			CreatedAt: t.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, listResponse{
		Transactions: out,
		Count:        len(out),
		Limit:        limit,
		Offset:       offset,
	})
}
