package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetricsRecorder receives one call per request
type HTTPMetricsRecorder interface {
	RequestStarted()
	RequestFinished(method, route string, status int, duration time.Duration)
}

// HTTPMetricsConfig holds configuration for HTTP metrics middleware
type HTTPMetricsConfig struct {
	Recorder HTTPMetricsRecorder
	// SkipRoutes are route templates that are not recorded
	SkipRoutes []string
	Enabled    bool
}

// DefaultHTTPMetricsConfig returns default HTTP metrics configuration
func DefaultHTTPMetricsConfig(recorder HTTPMetricsRecorder) HTTPMetricsConfig {
	return HTTPMetricsConfig{
		Recorder:   recorder,
		SkipRoutes: []string{"/metrics", "/health"},
		Enabled:    true,
	}
}

// HTTPMetrics returns a Gin middleware that records request count, latency
// and in-flight requests labelled by route template, so path parameters do
// not explode label cardinality.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Recorder == nil {
		return func(c *gin.Context) { c.Next() }
	}

	skip := make(map[string]struct{}, len(cfg.SkipRoutes))
	for _, r := range cfg.SkipRoutes {
		skip[r] = struct{}{}
	}

	return func(c *gin.Context) {
		route := getRoutePattern(c)
		if _, ok := skip[route]; ok {
			c.Next()
			return
		}

		start := time.Now()
		cfg.Recorder.RequestStarted()

		c.Next()

		cfg.Recorder.RequestFinished(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// getRoutePattern returns the matched route template, or "unmatched" for 404s
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
