package web

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/n8njson/directory/pkg/metrics"
)

// MetricsMiddleware records request counts and latencies by route pattern.
func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(c fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}

		// Unmatched requests share one label to keep cardinality bounded.
		path := "unmatched"
		if route := c.Route(); route != nil && route.Path != "" && status != fiber.StatusNotFound {
			path = route.Path
		}

		m.RecordHTTPRequest(c.Method(), path, strconv.Itoa(status), time.Since(start).Seconds())

		return err
	}
}
