package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/metrics"
	"github.com/gin-gonic/gin"
)

const unmatchedRoute = "unmatched"

// Metrics records latency and count per route. Requests that match no route
// share one label so scanners cannot blow up series cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		group := routeGroup(route)
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		metrics.HTTPRequestDuration.WithLabelValues(group, method, route, status).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(group, method, route, status).Inc()
	}
}

// routeGroup maps "/trigger/start" to "trigger" and "/fires/:id" to "fires".
func routeGroup(route string) string {
	if route == unmatchedRoute {
		return unmatchedRoute
	}
	group, _, _ := strings.Cut(strings.TrimPrefix(route, "/"), "/")
	if group == "" {
		return "root"
	}
	return group
}
