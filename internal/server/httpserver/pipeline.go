package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/foxhorn/foxyserver/internal/telemetry/logger"
)

// missingPermissions completes the body of a 403.
const missingPermissions = "Missing permissions"

// serveConn runs the pipeline for one accepted connection: read, parse,
// resolve the session, route, handle and respond. The connection is always
// closed on return.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	start := time.Now()
	connID := ulid.Make().String()
	remoteIP := peerIP(conn.RemoteAddr())
	log := s.logger.With("conn_id", connID, "remote", remoteIP)

	s.metrics.ConnectionsActive.Inc()
	defer s.metrics.ConnectionsActive.Dec()
	defer conn.Close()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("connection abandoned", "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(s.cfg.ReadTimeout))
	}

	raw, err := ReadRequest(conn, s.cfg.MaxRequestBytes)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyRequest):
			log.Debug("connection closed without a request")
		case errors.Is(err, ErrRequestTooLarge):
			s.metrics.ParseErrors.WithLabelValues("too_large").Inc()
			log.Warn("request too large", "limit", s.cfg.MaxRequestBytes)
			s.writeBadRequest(conn, log, err)
		case errors.Is(err, ErrIncompleteRequest):
			s.metrics.ParseErrors.WithLabelValues("incomplete").Inc()
			log.Warn("request incomplete at read deadline", "received", len(raw))
			s.writeBadRequest(conn, log, ErrIncompleteRequest)
		default:
			log.Warn("request read failed", "error", err)
		}
		return
	}

	req, err := Parse(raw, s.auth.TokenName())
	if err != nil {
		reason := "malformed"
		if errors.Is(err, ErrUnsupportedVerb) {
			reason = "unsupported_verb"
		}
		s.metrics.ParseErrors.WithLabelValues(reason).Inc()
		log.Warn("request rejected", "reason", reason, "error", err)
		s.writeBadRequest(conn, log, err)
		return
	}
	req.RemoteIP = remoteIP

	reqCtx := logger.WithConnID(ctx, connID)
	c := NewContext(reqCtx, req, ContextOptions{
		Auth:            s.auth,
		Files:           s.files,
		DefaultLanguage: s.cfg.DefaultLanguage,
		Logger:          log,
	})

	s.resolveSession(c)
	s.dispatch(c)

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := c.Process(conn); err != nil {
		log.Warn("response write failed", "error", err)
	}

	status := c.Response.Status()
	s.metrics.RequestsTotal.WithLabelValues(req.Verb, strconv.Itoa(status)).Inc()
	s.metrics.RequestDuration.WithLabelValues(req.Verb).Observe(time.Since(start).Seconds())
	log.Debug("request completed",
		"verb", req.Verb,
		"path", req.Path,
		"status", status,
		"user_id", c.Session().User().ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// resolveSession binds the session named by the auth cookie, or a new guest
// session when the token is absent, unknown or expired.
func (s *Server) resolveSession(c *Context) {
	if token := c.Request.AuthToken; token != "" {
		if session := s.auth.SessionForToken(token); session != nil {
			c.SetSession(session)
			return
		}
	}
	c.SetSession(s.auth.CreateGuestSession(c.Context(), c))
}

// dispatch routes the request. Unmatched paths are served as static files.
// A handler failure, returned or panicked, becomes a 500 whose body is the
// failure text.
func (s *Server) dispatch(c *Context) {
	h := s.router.Match(c.Request.Path)
	if h == nil {
		c.Response.SetFile(c.Request.Path)
		return
	}
	c.BindPath(h.PathHandled())

	run := Chain(func(c *Context) error {
		if ps, ok := h.(PermissionSetter); ok {
			ps.SetPermissions(c)
		}
		if !s.auth.ShouldAllowRequest(c) {
			c.Response.Fail(StatusForbidden,
				fmt.Sprintf("Failed request %s due to lack of permissions.\n%s", c.Request.Path, missingPermissions))
			return nil
		}
		return h.HandleRequest(c)
	}, s.middleware...)

	if err := run(c); err != nil {
		s.metrics.HandlerFailures.Inc()
		c.Logger().Error("handler failed", "path", c.Request.Path, "handler", h.PathHandled(), "error", err)
		c.Response.Fail(StatusInternalServerError, err.Error())
	}
}

// writeBadRequest answers a request that could not be parsed. No session
// exists yet, so neither the auth cookie nor the debug headers are sent.
func (s *Server) writeBadRequest(conn net.Conn, log *slog.Logger, cause error) {
	resp := NewResponse()
	resp.Fail(StatusBadRequest, cause.Error())

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := resp.Process(conn, ProcessOptions{}); err != nil {
		log.Warn("response write failed", "error", err)
	}
	s.metrics.RequestsTotal.WithLabelValues("unknown", strconv.Itoa(StatusBadRequest)).Inc()
}

// peerIP returns the IP part of addr.
func peerIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
