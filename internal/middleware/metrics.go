package middleware

import (
	"strings"
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the HTTP metrics collector on the default Prometheus
// registry, so application counters are served from the same /metrics endpoint.
// The collector is process-wide; repeated calls return the same instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.NewWithDefaultRegistry(serviceName)
	})
	return prom
}

// MetricsMiddleware records request metrics, leaving health checks, the swagger UI
// and the monitor dashboard out of the series.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/metrics" ||
			strings.HasPrefix(path, "/health") ||
			strings.HasPrefix(path, "/api/swagger") ||
			strings.HasPrefix(path, "/monitor") {
			return c.Next()
		}
		return p.Middleware(c)
	}
}
