package handler

import (
	"context"
	"time"

	"github.com/foxhorn/foxyserver/internal/infra/buildinfo"
	"github.com/foxhorn/foxyserver/internal/server/httpserver"
)

// HealthPath is the default prefix of the health handler.
const HealthPath = "/health"

// HealthOptions configure the health handler.
type HealthOptions struct {
	// Ready reports whether dependencies are usable; nil means always.
	Ready func(ctx context.Context) error
	// Sessions returns the number of live sessions; nil omits the field.
	Sessions func() int
}

// Health returns a handler reporting liveness as JSON. A failing readiness
// check answers 500 with status "unavailable".
func Health(prefix string, opts HealthOptions) httpserver.PathHandler {
	return httpserver.Handle(prefix, func(c *httpserver.Context) error {
		resp := HealthResponse{
			Status:  "healthy",
			Version: buildinfo.Version,
			Time:    time.Now().UTC().Format(time.RFC3339),
		}
		if opts.Sessions != nil {
			resp.Sessions = opts.Sessions()
		}

		status := httpserver.StatusOK
		if opts.Ready != nil {
			if err := opts.Ready(c.Context()); err != nil {
				status = httpserver.StatusInternalServerError
				resp.Status = "unavailable"
				resp.Error = err.Error()
			}
		}
		return writeJSON(c, status, resp)
	})
}
