package web

import (
	"errors"
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/metrics"
	"github.com/gofiber/fiber/v3"
)

// RequestMetrics records count and latency of every request, labelled by route pattern.
func RequestMetrics(m *metrics.Metrics) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		m.ObserveRequest(c.Method(), c.Route().Path, status, time.Since(start))

		return err
	}
}
