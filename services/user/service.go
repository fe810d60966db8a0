package user

import (
	"errors"
	"net/http"
	"time"

	"loyalty-webhook-processor/pkg/errutil"
	"loyalty-webhook-processor/services/loyalty"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Service serves the read-only user lookup. It never mutates core state.
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

type userResponse struct {
	ID        string    `json:"id"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Service) GetUser(c *gin.Context) {
	id := c.Param("id")

	var user loyalty.User
	if err := s.db.WithContext(c.Request.Context()).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(errutil.NotFound("User not found", err))
			return
		}
		c.Error(errutil.Internal("Failed to fetch user", err))
		return
	}

	c.JSON(http.StatusOK, userResponse{
		ID:        user.ID,
		Points:    user.Points,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}
