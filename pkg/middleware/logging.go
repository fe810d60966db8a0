package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logging emits one structured access log line per request. Level follows
// the response class: 5xx error, 4xx warn, else info.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)),
		}

		switch {
		case status >= 500:
			zap.L().Error("http.request", fields...)
		case status >= 400:
			zap.L().Warn("http.request", fields...)
		default:
			zap.L().Info("http.request", fields...)
		}
	}
}
