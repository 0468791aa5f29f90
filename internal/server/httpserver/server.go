package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/foxhorn/foxyserver/internal/core/service"
	"github.com/foxhorn/foxyserver/internal/telemetry/metric"
)

// Config holds the server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// MaxWorkers bounds concurrently served connections; 0 is unbounded.
	// When all workers are busy the accept loop waits.
	MaxWorkers int64
	// ReadTimeout bounds reading a request; 0 disables the deadline.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing a response; 0 disables the deadline.
	WriteTimeout time.Duration
	// AcceptRate limits accepted connections per second; 0 disables it.
	// Connections over the limit are closed without a response.
	AcceptRate float64
	// AcceptBurst is the accept limiter burst.
	AcceptBurst int
	// MaxRequestBytes bounds the request size (default: 1 MiB).
	MaxRequestBytes int
	// DefaultLanguage is used when a request names no language.
	DefaultLanguage string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:            "127.0.0.1:8080",
		MaxWorkers:      256,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		AcceptBurst:     100,
		MaxRequestBytes: DefaultMaxRequestBytes,
		DefaultLanguage: DefaultLanguage,
	}
}

// Server accepts connections and runs the pipeline for each on its own
// goroutine.
type Server struct {
	cfg        *Config
	router     *Router
	auth       service.Authenticator
	files      FileResolver
	middleware []Middleware
	logger     *slog.Logger
	metrics    *metric.Registry

	sem     *semaphore.Weighted
	limiter *rate.Limiter

	mu       sync.Mutex
	ln       net.Listener
	stopAcc  context.CancelFunc
	running  atomic.Bool
	acceptWg sync.WaitGroup
	workerWg sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Server) { s.metrics = m }
}

// WithFiles sets the file resolver for static files.
func WithFiles(f FileResolver) Option {
	return func(s *Server) { s.files = f }
}

// WithMiddleware appends handler middleware. Recover always runs outermost.
func WithMiddleware(m ...Middleware) Option {
	return func(s *Server) { s.middleware = append(s.middleware, m...) }
}

// New creates a server routing with router and resolving sessions with auth.
func New(cfg *Config, router *Router, auth service.Authenticator, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if router == nil {
		router = NewRouter()
	}

	s := &Server{
		cfg:    cfg,
		router: router,
		auth:   auth,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "httpserver")
	if s.metrics == nil {
		s.metrics = metric.NewRegistry()
	}
	s.middleware = append([]Middleware{Recover(s.logger)}, s.middleware...)

	if cfg.MaxWorkers > 0 {
		s.sem = semaphore.NewWeighted(cfg.MaxWorkers)
	}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}

	return s
}

// Start binds the listen address and starts the accept loop. A bind failure
// is returned and nothing is started. ctx is the parent of every request
// context; cancelling it does not stop the server.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return errors.New("httpserver: already started")
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.logger.Error("bind failed", "addr", s.cfg.Addr, "error", err)
		return err
	}

	acceptCtx, cancel := context.WithCancel(context.Background())
	s.ln = ln
	s.stopAcc = cancel
	s.running.Store(true)

	s.logger.Info("listening", "addr", ln.Addr().String())

	s.acceptWg.Add(1)
	go func() {
		defer s.acceptWg.Done()
		s.acceptLoop(ctx, acceptCtx, ln)
	}()
	return nil
}

// Addr returns the bound address, nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop closes the listener and waits for the accept loop to exit. Workers
// already serving connections keep running; use Drain to wait for them.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running.Swap(false) {
		s.mu.Unlock()
		return nil
	}
	err := s.ln.Close()
	s.stopAcc()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.acceptWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("stopped accepting")
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

// Drain waits until every in-flight connection has been served.
func (s *Server) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting and drains in-flight connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	return s.Drain(ctx)
}

// maxAcceptDelay caps the pause after consecutive accept errors.
const maxAcceptDelay = time.Second

func (s *Server) acceptLoop(ctx, acceptCtx context.Context, ln net.Listener) {
	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.metrics.AcceptErrors.Inc()
			s.logger.Warn("accept failed", "error", err)

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else if delay *= 2; delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			time.Sleep(delay)
			continue
		}
		delay = 0
		s.metrics.ConnectionsAccepted.Inc()

		if s.limiter != nil && !s.limiter.Allow() {
			s.metrics.ConnectionsRejected.Inc()
			s.logger.Debug("connection rate limited", "remote", conn.RemoteAddr().String())
			_ = conn.Close()
			continue
		}

		if s.sem != nil {
			if err := s.sem.Acquire(acceptCtx, 1); err != nil {
				_ = conn.Close()
				return
			}
		}

		s.workerWg.Add(1)
		go func() {
			defer s.workerWg.Done()
			if s.sem != nil {
				defer s.sem.Release(1)
			}
			s.serveConn(ctx, conn)
		}()
	}
}
