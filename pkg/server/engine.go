package server

import (
	"net/http"

	"loyalty-webhook-processor/pkg/config"
	"loyalty-webhook-processor/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// NewEngine builds the shared gin engine the service modules register their
// routes on.
func NewEngine(cfg *config.Config) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	e := gin.New()
	e.Use(
		gin.Recovery(),
		middleware.Logging(),
		middleware.Error(),
	)

	e.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": cfg.AppName,
			"status":  "running",
		})
	})

	e.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "NOT_FOUND",
			"message": "Endpoint not found",
		})
	})

	return e
}
