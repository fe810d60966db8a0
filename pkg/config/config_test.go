package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "a-test-secret-of-sufficient-length")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":3000", cfg.Server.Addr)
	require.Equal(t, "payment-events", cfg.Queue.Name)
	require.Equal(t, 5, cfg.Queue.MaxAttempts)
	require.Equal(t, time.Second, cfg.Queue.RetryBaseDelay)
	require.Equal(t, 5, cfg.Worker.Concurrency)
	require.Equal(t, 10, cfg.Worker.RateLimit)
	require.Equal(t, int64(1), cfg.Loyalty.PointsPer100)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "a-test-secret-of-sufficient-length")
	t.Setenv("QUEUE_MAX_ATTEMPTS", "8")
	t.Setenv("WORKER_CONCURRENCY", "2")
	t.Setenv("LOYALTY_POINTS_PER_100", "3")
	t.Setenv("SERVER_ADDR", ":8080")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8, cfg.Queue.MaxAttempts)
	require.Equal(t, 2, cfg.Worker.Concurrency)
	require.Equal(t, int64(3), cfg.Loyalty.PointsPer100)
	require.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "WEBHOOK_SECRET")
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidQueueSettings(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "a-test-secret-of-sufficient-length")
	t.Setenv("QUEUE_MAX_ATTEMPTS", "0")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "QUEUE_MAX_ATTEMPTS")
}

func TestDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = "5433"
	cfg.Database.User = "loyalty"
	cfg.Database.Password = "secret"
	cfg.Database.DBName = "loyalty"
	cfg.Database.SSLMode = "require"
	cfg.Database.Timezone = "UTC"

	require.Equal(t,
		"host=db.internal port=5433 user=loyalty password=secret dbname=loyalty sslmode=require TimeZone=UTC",
		cfg.DSN())
}
