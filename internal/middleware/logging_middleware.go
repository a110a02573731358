package middleware

import (
	"strconv"
	"time"

	"mtrbac/pkg/logger"
	"mtrbac/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger 访问日志与请求指标
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.ObserveRequest(c.Request.Method, route, strconv.Itoa(status), elapsed)

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"route":   route,
			"status":  status,
			"latency": elapsed.String(),
			"ip":      c.ClientIP(),
		}
		if key, ok := TenantKey(c); ok {
			fields["tenant"] = key
		}
		entry := logger.GetLogger().WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
