package command

import (
	"context"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/foxhorn/foxyserver/internal/core/service"
	"github.com/foxhorn/foxyserver/internal/infra/buildinfo"
	"github.com/foxhorn/foxyserver/internal/infra/confloader"
	"github.com/foxhorn/foxyserver/internal/infra/shutdown"
	"github.com/foxhorn/foxyserver/internal/server/config"
	"github.com/foxhorn/foxyserver/internal/telemetry/logger"
)

// shutdownTimeout bounds the time hooks get to release their component.
const shutdownTimeout = 30 * time.Second

// ServeCommand runs the server until SIGINT or SIGTERM.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.addr)",
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "Static file root (overrides files.root)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
		},
		Action: runServe,
	}
}

func serveOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if v := c.String("addr"); v != "" {
		overrides["server.addr"] = v
	}
	if v := c.String("root"); v != "" {
		overrides["files.root"] = v
	}
	if v := c.String("log-level"); v != "" {
		overrides["log.level"] = v
	}
	return overrides
}

func runServe(c *cli.Context) error {
	cfg, loader, err := loadConfig(c, serveOverrides(c))
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	for _, w := range config.Warnings(cfg) {
		log.Warn(w)
	}
	log.Info("starting", "version", buildinfo.String(), "variant", cfg.Security.AuthVariant,
		"storage", cfg.Storage.Backend)

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}

	handler := shutdown.NewHandler(shutdownTimeout, log)
	if err := rt.start(ctx, handler); err != nil {
		rt.close()
		return err
	}

	if path := loader.FilePath(); path != "" {
		watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else if err := watcher.Watch(path); err != nil {
			log.Warn("config watcher disabled", "file", path, "error", err)
			watcher.Stop()
		} else {
			confloader.ReloadOnChange(watcher, loader, log, func(next *config.ServerConfig) {
				logger.SetLevel(next.Log.Level)
			})
			watcher.StartAsync()
			handler.OnShutdown("config-watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	return handler.Wait(ctx)
}

// start binds the listener, launches the session sweeper and registers the
// shutdown hooks. The server stops first and the store closes last.
func (rt *runtime) start(ctx context.Context, h *shutdown.Handler) error {
	h.OnShutdown("storage", func(context.Context) error {
		return rt.close()
	})

	var pruners []service.Pruner
	if auth, ok := rt.auth.(*service.AuthService); ok {
		pruners = append(pruners, auth.PruneLimiters)
	}
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		service.RunSweeper(sweepCtx, rt.table, rt.cfg.Security.SweepInterval, rt.logger, pruners...)
	}()
	h.OnShutdown("session-sweeper", func(ctx context.Context) error {
		cancelSweep()
		select {
		case <-sweepDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err := rt.server.Start(ctx); err != nil {
		cancelSweep()
		<-sweepDone
		return err
	}
	h.OnShutdown("http-server", rt.server.Shutdown)
	return nil
}
