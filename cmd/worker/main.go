package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	asynqfx "loyalty-webhook-processor/pkg/asynq"
	"loyalty-webhook-processor/pkg/config"
	"loyalty-webhook-processor/pkg/db"
	"loyalty-webhook-processor/pkg/health"
	"loyalty-webhook-processor/pkg/logger"
	"loyalty-webhook-processor/pkg/metrics"
	"loyalty-webhook-processor/pkg/redis"
	"loyalty-webhook-processor/pkg/server"
	"loyalty-webhook-processor/services/bootstrap"
	"loyalty-webhook-processor/services/loyalty"
	"loyalty-webhook-processor/services/webhook"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		asynqfx.Client,
		asynqfx.Server,
		metrics.Module,
		health.Module,
		fx.Provide(provideSnowflakeNode),
		bootstrap.Module,
		fx.Provide(webhook.NewService),
		loyalty.Module,
		loyalty.TaskModule,
		fx.Invoke(metrics.RegisterQueuePoller),
		server.ProvideHTTPServer,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(2)
}
