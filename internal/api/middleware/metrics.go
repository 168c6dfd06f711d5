package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/metrics"
)

// MetricsMiddleware 请求指标中间件
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			// 未匹配任何路由的请求归到一个桶里，避免标签爆炸
			endpoint = "unmatched"
		}

		metrics.APIRequestsTotal.WithLabelValues(
			c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.APIRequestDuration.WithLabelValues(
			c.Request.Method, endpoint,
		).Observe(time.Since(startTime).Seconds())
	}
}
