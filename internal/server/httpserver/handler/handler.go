package handler

import (
	"encoding/json"
	"strings"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/server/httpserver"
	"github.com/foxhorn/foxyserver/internal/telemetry/logger"
)

// writeJSON replies with data in a success envelope.
func writeJSON(c *httpserver.Context, status int, data any) error {
	c.Response.SetStatus(status)
	return c.Response.SetJSON(NewEnvelope(requestID(c), data))
}

// writeError replies with err in an error envelope. Domain errors keep
// their code; anything else is logged and reported as an internal error.
func writeError(c *httpserver.Context, err error) error {
	code := domain.GetErrorCode(err)
	message := err.Error()
	if code == "" {
		logger.FromContext(c.Context()).Error("internal error", "path", c.Request.Path, "error", err)
		code, message = domain.ErrInternalServer.Code, domain.ErrInternalServer.Message
	}

	c.Response.SetStatus(errorCodeToStatus(code))
	return c.Response.SetJSON(NewErrorEnvelope(requestID(c), code, message, ""))
}

// decodeBody decodes the JSON request body into v.
func decodeBody(c *httpserver.Context, v any) error {
	if len(c.Request.Body) == 0 {
		return domain.ErrMissingArgument.WithDetails("request body")
	}
	if err := json.Unmarshal(c.Request.Body, v); err != nil {
		return domain.ErrBadRequest.WithDetails("invalid request body").WithCause(err)
	}
	return nil
}

func requestID(c *httpserver.Context) string {
	return logger.ConnIDFromContext(c.Context())
}

// errorCodeToStatus maps error codes to HTTP status codes.
func errorCodeToStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return httpserver.StatusNotFound
	case strings.HasSuffix(code, "-4090"), strings.HasSuffix(code, "-4091"):
		return httpserver.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return httpserver.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"):
		return httpserver.StatusBadRequest
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"):
		return httpserver.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"), strings.HasSuffix(code, "-4031"):
		return httpserver.StatusForbidden
	case strings.HasSuffix(code, "-5010"):
		return httpserver.StatusNotImplemented
	case strings.HasPrefix(code, "FX-ARG-"):
		return httpserver.StatusBadRequest
	default:
		return httpserver.StatusInternalServerError
	}
}
