package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPRecorder receives per-request HTTP metrics.
type HTTPRecorder interface {
	RequestStarted()
	RequestFinished(method, route, status string, duration time.Duration)
}

func MetricsMiddleware(recorder HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		recorder.RequestStarted()
		defer func() {
			recorder.RequestFinished(c.Request.Method, routeOf(c), strconv.Itoa(c.Writer.Status()), time.Since(start))
		}()

		c.Next()
	}
}

// routeOf returns the matched route template, keeping label cardinality
// bounded for unknown paths.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
