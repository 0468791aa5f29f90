package handler

import (
	"github.com/foxhorn/foxyserver/internal/server/httpserver"
	"github.com/foxhorn/foxyserver/internal/telemetry/metric"
)

// MetricsPath is the default prefix of the metrics handler.
const MetricsPath = "/metrics"

// Metrics returns a handler exposing registry in the Prometheus text
// format.
func Metrics(prefix string, registry *metric.Registry) httpserver.PathHandler {
	return httpserver.Handle(prefix, func(c *httpserver.Context) error {
		data, err := registry.Text()
		if err != nil {
			return err
		}
		c.Response.SetRaw(data)
		c.Response.SetContentType(metric.TextContentType)
		return nil
	})
}
