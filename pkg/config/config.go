package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Config holds every externally supplied parameter. Nothing in here is
// computed by the application itself.
type Config struct {
	AppEnv  string
	AppName string

	Server struct {
		Addr          string
		ReadTimeout   time.Duration
		WriteTimeout  time.Duration
		IdleTimeout   time.Duration
		ShutdownGrace time.Duration
	}

	TLS struct {
		Enable   bool
		CertPath string
		KeyPath  string
	}

	Database struct {
		Host     string
		Port     string
		DBName   string
		User     string
		Password string
		SSLMode  string
		Timezone string

		ConnectionPool struct {
			MaxIdleConn     int
			MaxOpenConn     int
			ConnMaxLifetime time.Duration
			ConnMaxIdleTime time.Duration
		}
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		PoolSize int
	}

	Webhook struct {
		Secret string
	}

	Loyalty struct {
		PointsPer100 int64
	}

	Queue struct {
		Name               string
		MaxAttempts        int
		RetryBaseDelay     time.Duration
		CompletedRetention time.Duration
	}

	Worker struct {
		Concurrency int
		RateLimit   int
		RateBurst   int
	}
}

var Module = fx.Module("config", fx.Provide(Load))

// Load reads configuration from the environment (and an optional .env file)
// and validates the values the pipeline cannot run without.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app_env", "development")
	v.SetDefault("app_name", "loyalty-webhook-processor")
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_grace", 10*time.Second)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.dbname", "loyalty")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.pool.max_idle_conn", 5)
	v.SetDefault("database.pool.max_open_conn", 25)
	v.SetDefault("database.pool.conn_max_lifetime", time.Hour)
	v.SetDefault("database.pool.conn_max_idle_time", 10*time.Minute)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("loyalty.points_per_100", 1)
	v.SetDefault("queue.name", "payment-events")
	v.SetDefault("queue.max_attempts", 5)
	v.SetDefault("queue.retry_base_delay", time.Second)
	v.SetDefault("queue.completed_retention", time.Hour)
	v.SetDefault("worker.concurrency", 5)
	v.SetDefault("worker.rate_limit", 10)
	v.SetDefault("worker.rate_burst", 10)

	cfg := &Config{}
	cfg.AppEnv = v.GetString("app_env")
	cfg.AppName = v.GetString("app_name")
	cfg.Server.Addr = v.GetString("server.addr")
	cfg.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	cfg.Server.WriteTimeout = v.GetDuration("server.write_timeout")
	cfg.Server.IdleTimeout = v.GetDuration("server.idle_timeout")
	cfg.Server.ShutdownGrace = v.GetDuration("server.shutdown_grace")
	cfg.TLS.Enable = v.GetBool("tls.enable")
	cfg.TLS.CertPath = v.GetString("tls.cert_path")
	cfg.TLS.KeyPath = v.GetString("tls.key_path")
	cfg.Database.Host = v.GetString("database.host")
	cfg.Database.Port = v.GetString("database.port")
	cfg.Database.DBName = v.GetString("database.dbname")
	cfg.Database.User = v.GetString("database.user")
	cfg.Database.Password = v.GetString("database.password")
	cfg.Database.SSLMode = v.GetString("database.sslmode")
	cfg.Database.Timezone = v.GetString("database.timezone")
	cfg.Database.ConnectionPool.MaxIdleConn = v.GetInt("database.pool.max_idle_conn")
	cfg.Database.ConnectionPool.MaxOpenConn = v.GetInt("database.pool.max_open_conn")
	cfg.Database.ConnectionPool.ConnMaxLifetime = v.GetDuration("database.pool.conn_max_lifetime")
	cfg.Database.ConnectionPool.ConnMaxIdleTime = v.GetDuration("database.pool.conn_max_idle_time")
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")
	cfg.Redis.PoolSize = v.GetInt("redis.pool_size")
	cfg.Webhook.Secret = v.GetString("webhook.secret")
	cfg.Loyalty.PointsPer100 = v.GetInt64("loyalty.points_per_100")
	cfg.Queue.Name = v.GetString("queue.name")
	cfg.Queue.MaxAttempts = v.GetInt("queue.max_attempts")
	cfg.Queue.RetryBaseDelay = v.GetDuration("queue.retry_base_delay")
	cfg.Queue.CompletedRetention = v.GetDuration("queue.completed_retention")
	cfg.Worker.Concurrency = v.GetInt("worker.concurrency")
	cfg.Worker.RateLimit = v.GetInt("worker.rate_limit")
	cfg.Worker.RateBurst = v.GetInt("worker.rate_burst")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Webhook.Secret) < 16 {
		return fmt.Errorf("WEBHOOK_SECRET must be at least 16 characters")
	}
	if c.Loyalty.PointsPer100 <= 0 {
		return fmt.Errorf("LOYALTY_POINTS_PER_100 must be positive")
	}
	if c.Queue.MaxAttempts < 1 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be at least 1")
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	if c.TLS.Enable && (c.TLS.CertPath == "" || c.TLS.KeyPath == "") {
		return fmt.Errorf("tls enabled but TLS_CERT_PATH or TLS_KEY_PATH not provided")
	}
	return nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
		c.Database.Timezone,
	)
}
