package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CallerFunc extracts the authenticated caller id from a request, if any.
type CallerFunc func(c *fiber.Ctx) (int64, bool)

// UnmatchedRoute is the metric key shared by requests that reached no route.
const UnmatchedRoute = "unmatched"

// RouteKey returns the registered route pattern that served the request, so
// metric keys are limited to the routes the app declares. Requests that only
// passed through global middleware collapse into UnmatchedRoute.
func RouteKey(c *fiber.Ctx) string {
	route := c.Route()
	if route == nil || route.Path == "" || route.Path == "/" {
		return UnmatchedRoute
	}
	return route.Path
}

// RequestLogger logs one line per request and feeds the request counters.
// It must run outside the error-handling middleware so the logged status is
// the one sent to the client.
func RequestLogger(logger *zap.Logger, metrics *Metrics, caller CallerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		metrics.RecordRequest(RouteKey(c), c.Method(), status, duration)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
		}
		if caller != nil {
			if id, ok := caller(c); ok {
				fields = append(fields, zap.Int64("user_id", id))
			}
		}
		logger.Info("http request", fields...)
		return err
	}
}
