package metrics

import (
	"context"
	"time"

	"loyalty-webhook-processor/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("metrics",
	fx.Provide(New),
	fx.Invoke(registerRoutes),
)

func registerRoutes(e *gin.Engine, o *Observer) {
	e.GET("/metrics", o.Handler())
}

// Observer owns the prometheus registry and the collectors the pipeline
// reports into.
type Observer struct {
	registry *prometheus.Registry

	WebhookRequests       *prometheus.CounterVec
	JobProcessingDuration *prometheus.HistogramVec
	QueueDepth            *prometheus.GaugeVec
	PointsAwarded         prometheus.Counter
}

func New() *Observer {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	o := &Observer{
		registry: registry,
		WebhookRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Total number of webhook requests.",
		}, []string{"status"}),
		JobProcessingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_processing_duration_seconds",
			Help:    "Duration of job processing in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		}, []string{"status"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "queue_size",
			Help: "Number of tasks in the job queue by state.",
		}, []string{"state"}),
		PointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loyalty_points_awarded_total",
			Help: "Total loyalty points awarded.",
		}),
	}

	registry.MustRegister(
		o.WebhookRequests,
		o.JobProcessingDuration,
		o.QueueDepth,
		o.PointsAwarded,
	)

	return o
}

// Handler exposes the registry in prometheus text format.
func (o *Observer) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

type queuePollerParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Observer  *Observer
	Inspector *asynq.Inspector
}

// RegisterQueuePoller samples queue depth from the asynq inspector on an
// interval and feeds the gauge.
func RegisterQueuePoller(p queuePollerParams) {
	done := make(chan struct{})

	poll := func() {
		info, err := p.Inspector.GetQueueInfo(p.Config.Queue.Name)
		if err != nil {
			zap.L().Warn("failed to inspect queue", zap.String("queue", p.Config.Queue.Name), zap.Error(err))
			return
		}
		p.Observer.QueueDepth.WithLabelValues("pending").Set(float64(info.Pending))
		p.Observer.QueueDepth.WithLabelValues("active").Set(float64(info.Active))
		p.Observer.QueueDepth.WithLabelValues("retry").Set(float64(info.Retry))
		p.Observer.QueueDepth.WithLabelValues("archived").Set(float64(info.Archived))
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ticker := time.NewTicker(15 * time.Second)
				defer ticker.Stop()

				poll()
				for {
					select {
					case <-ticker.C:
						poll()
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})
}
