package bootstrap

import (
	"context"

	"loyalty-webhook-processor/services/loyalty"
	"loyalty-webhook-processor/services/webhook"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("bootstrap",
	fx.Invoke(runBootstrap),
)

// Run after DB initialized
func runBootstrap(lc fx.Lifecycle, db *gorm.DB) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := db.AutoMigrate(
				&webhook.Event{},
				&loyalty.User{},
				&loyalty.Transaction{},
			); err != nil {
				zap.L().Error("[Bootstrap] Migration failed", zap.Error(err))
				return err
			}

			zap.L().Info("[Bootstrap] Schema migrated")
			return nil
		},
	})
}
