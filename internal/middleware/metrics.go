package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/metrics"
)

// MetricsMiddleware records request count and latency per route template.
// Unmatched requests are grouped under "unmatched" to keep label cardinality bounded.
func MetricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
