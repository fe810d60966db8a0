package webhook

import (
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(
		NewService,
		NewHandler,
		provideEnqueuer,
	),
	fx.Invoke(registerRoutes),
)

func provideEnqueuer(client *asynq.Client) Enqueuer {
	return client
}

func registerRoutes(e *gin.Engine, h *Handler) {
	e.POST("/webhooks/payment", h.HandlePayment)
}
